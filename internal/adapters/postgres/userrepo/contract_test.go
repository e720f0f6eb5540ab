package userrepo

import (
	"testing"

	"github.com/triplink-app/triplink-api/internal/adapters/contracttest"
	"github.com/triplink-app/triplink-api/internal/adapters/postgres/testutil"
	userrepoport "github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

func TestContract_PostgresUserRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunUserRepo(t, func(t *testing.T) (userrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
