package config_test

import (
	"testing"

	"github.com/triplink-app/triplink-api/internal/platform/config"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.StorageBackend != "memory" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.InvitePolicy != config.InviteLenient {
		t.Fatalf("invite policy=%q", cfg.InvitePolicy)
	}
}

func TestLoadFromEnv_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := config.LoadFromEnv(); err == nil {
		t.Fatalf("expected error for missing DATABASE_URL")
	}
}

func TestLoadFromEnv_RejectsUnknownPolicy(t *testing.T) {
	t.Setenv("INVITE_POLICY", "ask-nicely")
	if _, err := config.LoadFromEnv(); err == nil {
		t.Fatalf("expected error for unknown invite policy")
	}
}
