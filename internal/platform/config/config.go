package config

import (
	"fmt"
	"os"
	"time"
)

// InvitePolicy controls how trip creation treats participant tokens that do
// not resolve to a user.
type InvitePolicy string

const (
	// InviteLenient drops unresolved tokens and reports them in the response.
	InviteLenient InvitePolicy = "lenient"
	// InviteStrict fails the whole request when any token does not resolve.
	InviteStrict InvitePolicy = "strict"
)

// Config is the deployment-provided process configuration.
type Config struct {
	Port string

	// StorageBackend selects the repository adapters: "memory" or "postgres".
	StorageBackend string
	DatabaseURL    string

	InvitePolicy InvitePolicy

	// RequestTimeout bounds every request; the synchronizer's paired updates
	// share this budget.
	RequestTimeout time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		StorageBackend: getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		InvitePolicy:   InvitePolicy(getenv("INVITE_POLICY", string(InviteLenient))),
		RequestTimeout: 15 * time.Second,
	}

	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	switch cfg.InvitePolicy {
	case InviteLenient, InviteStrict:
	default:
		return Config{}, fmt.Errorf("INVITE_POLICY must be lenient or strict, got %q", cfg.InvitePolicy)
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("REQUEST_TIMEOUT must be a duration (e.g. 15s): %w", err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
