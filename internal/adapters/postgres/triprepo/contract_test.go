package triprepo

import (
	"testing"

	"github.com/triplink-app/triplink-api/internal/adapters/contracttest"
	"github.com/triplink-app/triplink-api/internal/adapters/postgres/testutil"
	pguserrepo "github.com/triplink-app/triplink-api/internal/adapters/postgres/userrepo"
	triprepoport "github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	userrepoport "github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

func TestContract_PostgresTripRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunTripRepo(
		t,
		func(t *testing.T) (userrepoport.Repository, func()) {
			t.Helper()
			return pguserrepo.NewRepo(pool), nil
		},
		func(t *testing.T) (triprepoport.Repository, func()) {
			t.Helper()
			return NewRepo(pool), nil
		},
	)
}
