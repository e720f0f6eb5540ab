// Package testutil opens migrated postgres pools for adapter tests. Tests that
// call it are skipped unless TEST_DATABASE_URL is set, so the default `go test`
// run stays fully local.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triplink-app/triplink-api/internal/adapters/postgres"
)

// EnvDatabaseURL names the environment variable holding the test DSN.
const EnvDatabaseURL = "TEST_DATABASE_URL"

// tables in FK-safe truncation order.
var tables = []string{
	"event_infos",
	"event_participants",
	"events",
	"trip_participants",
	"trips",
	"user_documents",
	"user_trips",
	"user_friends",
	"users",
}

// OpenMigratedPool opens a pool against TEST_DATABASE_URL, applies the schema
// and truncates all tables so each test starts from an empty database. The
// pool is closed via t.Cleanup.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set; skipping postgres test", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return pool
}
