package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triplink-app/triplink-api/internal/adapters/httpapi"
	memeventrepo "github.com/triplink-app/triplink-api/internal/adapters/memory/eventrepo"
	memtriprepo "github.com/triplink-app/triplink-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/triplink-app/triplink-api/internal/adapters/memory/userrepo"
	postgres "github.com/triplink-app/triplink-api/internal/adapters/postgres"
	pgeventrepo "github.com/triplink-app/triplink-api/internal/adapters/postgres/eventrepo"
	pgtriprepo "github.com/triplink-app/triplink-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/triplink-app/triplink-api/internal/adapters/postgres/userrepo"
	"github.com/triplink-app/triplink-api/internal/app/accounts"
	"github.com/triplink-app/triplink-api/internal/app/events"
	"github.com/triplink-app/triplink-api/internal/app/trips"
	platformclock "github.com/triplink-app/triplink-api/internal/platform/clock"
	"github.com/triplink-app/triplink-api/internal/platform/config"
	"github.com/triplink-app/triplink-api/internal/platform/logging"
	eventrepoport "github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	triprepoport "github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	userrepoport "github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

func main() {
	logging.Setup()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	clk := platformclock.NewSystemClock()

	var (
		userRepo  userrepoport.Repository
		tripRepo  triprepoport.Repository
		eventRepo eventrepoport.Repository
		cleanup   func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			slog.Error("open postgres pool", "err", err)
			os.Exit(1)
		}
		cleanup = pool.Close
		if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
			pool.Close()
			slog.Error("ensure schema", "err", err)
			os.Exit(1)
		}

		userRepo = pguserrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		eventRepo = pgeventrepo.NewRepo(pool)
	default:
		userRepo = memuserrepo.NewRepo()
		tripRepo = memtriprepo.NewRepo()
		eventRepo = memeventrepo.NewRepo()
	}

	if cleanup != nil {
		defer cleanup()
	}

	accountsSvc := accounts.NewService(userRepo, tripRepo, clk)
	tripsSvc := trips.NewService(tripRepo, userRepo, eventRepo, clk, cfg.InvitePolicy)
	eventsSvc := events.NewService(eventRepo, tripRepo, userRepo, clk)

	api := httpapi.NewServer(accountsSvc, tripsSvc, eventsSvc)
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("api listening", "port", cfg.Port, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
