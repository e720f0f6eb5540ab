// Package contracttest holds repository contract suites shared by the memory
// and postgres adapters. Each adapter's _test.go files call these with a
// factory for their own implementation.
package contracttest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/triplink-app/triplink-api/internal/domain"
	eventrepoport "github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	triprepoport "github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	userrepoport "github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type TripRepoFactory func(t *testing.T) (triprepoport.Repository, CleanupFunc)
type EventRepoFactory func(t *testing.T) (eventrepoport.Repository, CleanupFunc)

func sampleUser(name string) userrepoport.User {
	now := time.Unix(100, 0).UTC()
	return userrepoport.User{
		ID:           domain.UserID(uuid.NewString()),
		SessionToken: "sess-" + name + "-" + uuid.NewString(),
		UserToken:    "user-" + name + "-" + uuid.NewString(),
		Username:     name,
		Email:        name + "-" + uuid.NewString() + "@example.com",
		PasswordHash: "$2a$10$hash",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	alice := sampleUser("alice")

	if err := repo.Create(ctx, alice); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, alice); !errors.Is(err, userrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v", err)
	}

	got, err := repo.GetByID(ctx, alice.ID)
	if err != nil || got.Username != "alice" {
		t.Fatalf("GetByID: %+v, %v", got, err)
	}

	if got, err = repo.GetBySessionToken(ctx, alice.SessionToken); err != nil || got.ID != alice.ID {
		t.Fatalf("GetBySessionToken: %+v, %v", got, err)
	}
	if _, err = repo.GetBySessionToken(ctx, "nope"); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("unknown session token err=%v", err)
	}
	if _, err = repo.GetBySessionToken(ctx, ""); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("empty session token err=%v", err)
	}

	if got, err = repo.GetByUserToken(ctx, alice.UserToken); err != nil || got.ID != alice.ID {
		t.Fatalf("GetByUserToken: %+v, %v", got, err)
	}
	if got, err = repo.GetByUsername(ctx, "alice"); err != nil || got.ID != alice.ID {
		t.Fatalf("GetByUsername: %+v, %v", got, err)
	}

	// Email lookup is case-insensitive.
	if got, err = repo.GetByEmail(ctx, alice.Email); err != nil || got.ID != alice.ID {
		t.Fatalf("GetByEmail: %+v, %v", got, err)
	}
	if got, err = repo.GetByEmail(ctx, strings.ToUpper(alice.Email)); err != nil || got.ID != alice.ID {
		t.Fatalf("GetByEmail upper: %+v, %v", got, err)
	}

	// Save updates fields and the relationship list round-trips in order.
	tripA := domain.TripID(uuid.NewString())
	tripB := domain.TripID(uuid.NewString())
	got.Trips = []domain.TripID{tripA, tripB}
	got.SessionToken = "rotated-" + uuid.NewString()
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got2, err := repo.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetByID after Save: %v", err)
	}
	if len(got2.Trips) != 2 || got2.Trips[0] != tripA || got2.Trips[1] != tripB {
		t.Fatalf("trips=%v", got2.Trips)
	}
	if got2.SessionToken != got.SessionToken {
		t.Fatalf("session token not rotated: %q", got2.SessionToken)
	}
	if _, err := repo.GetBySessionToken(ctx, alice.SessionToken); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("old session token still resolves, err=%v", err)
	}
}

func RunTripRepo(t *testing.T, newUserRepo UserRepoFactory, newRepo TripRepoFactory) {
	t.Helper()
	ctx := context.Background()

	users, cleanupUsers := newUserRepo(t)
	if cleanupUsers != nil {
		t.Cleanup(cleanupUsers)
	}
	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	owner := sampleUser("owner")
	buddy := sampleUser("buddy")
	if err := users.Create(ctx, owner); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if err := users.Create(ctx, buddy); err != nil {
		t.Fatalf("create buddy: %v", err)
	}

	now := time.Unix(200, 0).UTC()
	trip := triprepoport.Trip{
		ID:             domain.TripID(uuid.NewString()),
		TripToken:      "trip-" + uuid.NewString(),
		OwnerID:        owner.ID,
		ParticipantIDs: []domain.UserID{buddy.ID},
		Name:           "Paris",
		DateStart:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:        time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		Description:    "long weekend",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := repo.Create(ctx, trip); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, trip); !errors.Is(err, triprepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v", err)
	}

	got, err := repo.GetByToken(ctx, trip.TripToken)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.OwnerID != owner.ID || len(got.ParticipantIDs) != 1 || got.ParticipantIDs[0] != buddy.ID {
		t.Fatalf("got=%+v", got)
	}
	if !got.DateEnd.Equal(trip.DateEnd) {
		t.Fatalf("dateEnd=%v", got.DateEnd)
	}

	// Ownership transfer round-trips.
	got.OwnerID = buddy.ID
	got.ParticipantIDs = nil
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got2, err := repo.GetByID(ctx, trip.ID)
	if err != nil || got2.OwnerID != buddy.ID || len(got2.ParticipantIDs) != 0 {
		t.Fatalf("after transfer: %+v, %v", got2, err)
	}

	if err := repo.Delete(ctx, trip.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, trip.ID); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("deleted trip still resolves, err=%v", err)
	}
	if err := repo.Delete(ctx, trip.ID); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("double delete err=%v", err)
	}
}

func RunEventRepo(t *testing.T, newUserRepo UserRepoFactory, newTripRepo TripRepoFactory, newRepo EventRepoFactory) {
	t.Helper()
	ctx := context.Background()

	users, cleanupUsers := newUserRepo(t)
	if cleanupUsers != nil {
		t.Cleanup(cleanupUsers)
	}
	tripsRepo, cleanupTrips := newTripRepo(t)
	if cleanupTrips != nil {
		t.Cleanup(cleanupTrips)
	}
	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	creator := sampleUser("creator")
	if err := users.Create(ctx, creator); err != nil {
		t.Fatalf("create creator: %v", err)
	}
	now := time.Unix(300, 0).UTC()
	trip := triprepoport.Trip{
		ID:        domain.TripID(uuid.NewString()),
		TripToken: "trip-" + uuid.NewString(),
		OwnerID:   creator.ID,
		Name:      "Rome",
		DateStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tripsRepo.Create(ctx, trip); err != nil {
		t.Fatalf("create trip: %v", err)
	}

	seats := 4
	mkEvent := func(name string, day int) eventrepoport.Event {
		return eventrepoport.Event{
			ID:             domain.EventID(uuid.NewString()),
			EventToken:     "event-" + uuid.NewString(),
			TripID:         trip.ID,
			CreatorID:      creator.ID,
			Category:       "visit",
			Name:           name,
			Date:           time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC),
			TimeStart:      time.Date(2026, 10, day, 9, 0, 0, 0, time.UTC),
			TimeEnd:        time.Date(2026, 10, day, 12, 0, 0, 0, time.UTC),
			Seats:          &seats,
			ParticipantIDs: []domain.UserID{creator.ID},
			Infos: []eventrepoport.Info{
				{InfoToken: "info-" + uuid.NewString(), AuthorID: creator.ID, Name: "tickets", Type: "url", URI: "https://example.com"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	later := mkEvent("Colosseum", 3)
	earlier := mkEvent("Vatican", 2)
	if err := repo.Create(ctx, later); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, earlier); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByToken(ctx, later.EventToken)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.Seats == nil || *got.Seats != 4 || len(got.Infos) != 1 {
		t.Fatalf("got=%+v", got)
	}

	list, err := repo.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListByTrip: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Vatican" || list[1].Name != "Colosseum" {
		t.Fatalf("list order: %+v", list)
	}

	if err := repo.Delete(ctx, later.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.DeleteByTrip(ctx, trip.ID); err != nil {
		t.Fatalf("DeleteByTrip: %v", err)
	}
	list, err = repo.ListByTrip(ctx, trip.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("after cascade: %v, %v", list, err)
	}
}
