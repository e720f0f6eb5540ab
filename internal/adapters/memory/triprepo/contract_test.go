package triprepo

import (
	"testing"

	"github.com/triplink-app/triplink-api/internal/adapters/contracttest"
	memuserrepo "github.com/triplink-app/triplink-api/internal/adapters/memory/userrepo"
	triprepoport "github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	userrepoport "github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

func TestContract_MemoryTripRepo(t *testing.T) {
	contracttest.RunTripRepo(
		t,
		func(t *testing.T) (userrepoport.Repository, func()) {
			t.Helper()
			return memuserrepo.NewRepo(), nil
		},
		func(t *testing.T) (triprepoport.Repository, func()) {
			t.Helper()
			return NewRepo(), nil
		},
	)
}
