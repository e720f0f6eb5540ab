package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	memclock "github.com/triplink-app/triplink-api/internal/adapters/memory/clock"
	memeventrepo "github.com/triplink-app/triplink-api/internal/adapters/memory/eventrepo"
	memtriprepo "github.com/triplink-app/triplink-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/triplink-app/triplink-api/internal/adapters/memory/userrepo"
	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

type fixture struct {
	svc   *Service
	users userrepo.Repository
	trips triprepo.Repository
	clk   *memclock.ManualClock
}

func newFixture() *fixture {
	users := memuserrepo.NewRepo()
	tripsRepo := memtriprepo.NewRepo()
	eventsRepo := memeventrepo.NewRepo()
	clk := memclock.NewManualClock(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	return &fixture{
		svc:   NewService(eventsRepo, tripsRepo, users, clk),
		users: users,
		trips: tripsRepo,
		clk:   clk,
	}
}

func (f *fixture) addUser(t *testing.T, name string) userrepo.User {
	t.Helper()
	now := f.clk.Now()
	u := userrepo.User{
		ID:           domain.UserID(uuid.NewString()),
		SessionToken: "sess-" + name,
		UserToken:    "user-" + name,
		Username:     name,
		Email:        name + "@example.com",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// addTrip creates a trip owned by the first user with the rest as
// participants.
func (f *fixture) addTrip(t *testing.T, name string, owner userrepo.User, participants ...userrepo.User) triprepo.Trip {
	t.Helper()
	now := f.clk.Now()
	trip := triprepo.Trip{
		ID:        domain.TripID(uuid.NewString()),
		TripToken: "trip-" + name,
		OwnerID:   owner.ID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, p := range participants {
		trip.ParticipantIDs = append(trip.ParticipantIDs, p.ID)
	}
	if err := f.trips.Create(context.Background(), trip); err != nil {
		t.Fatalf("create trip %s: %v", name, err)
	}
	return trip
}

func TestService_CreateEvent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	mallory := f.addUser(t, "mallory")
	trip := f.addTrip(t, "rome", alice, bob)

	seats := 3
	view, err := f.svc.CreateEvent(context.Background(), bob, CreateEventInput{
		TripToken:   trip.TripToken,
		Category:    "visit",
		Name:        "  Colosseum   tour ",
		Place:       "Rome",
		Date:        time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
		TimeStart:   time.Date(2026, 6, 16, 9, 0, 0, 0, time.UTC),
		TimeEnd:     time.Date(2026, 6, 16, 12, 0, 0, 0, time.UTC),
		Seats:       &seats,
		Infos:       []InfoInput{{Name: "tickets", Type: "url", URI: "https://example.com/t"}},
	})
	if err != nil {
		t.Fatalf("CreateEvent err=%v", err)
	}
	if view.Name != "Colosseum tour" || view.TripToken != trip.TripToken {
		t.Fatalf("view=%+v", view)
	}
	// The caller is creator and first participant; the info is stamped with
	// the caller as author and its own token.
	if view.Creator.UserToken != bob.UserToken {
		t.Fatalf("creator=%+v", view.Creator)
	}
	if len(view.Participants) != 1 || view.Participants[0].UserToken != bob.UserToken {
		t.Fatalf("participants=%+v", view.Participants)
	}
	if len(view.Infos) != 1 || view.Infos[0].InfoToken == "" || view.Infos[0].Author.UserToken != bob.UserToken {
		t.Fatalf("infos=%+v", view.Infos)
	}
	if view.Seats == nil || *view.Seats != 3 {
		t.Fatalf("seats=%v", view.Seats)
	}

	// Non-members get the same answer as for a trip that does not exist.
	ae := (*Error)(nil)
	if _, err := f.svc.CreateEvent(context.Background(), mallory, CreateEventInput{TripToken: trip.TripToken, Name: "X"}); !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "TRIP_NOT_FOUND" {
		t.Fatalf("stranger err=%v, want TRIP_NOT_FOUND 404", err)
	}

	// Validation.
	if _, err := f.svc.CreateEvent(context.Background(), bob, CreateEventInput{TripToken: trip.TripToken, Name: "  "}); !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("empty name err=%v, want 400", err)
	}
	zero := 0
	if _, err := f.svc.CreateEvent(context.Background(), bob, CreateEventInput{TripToken: trip.TripToken, Name: "X", Seats: &zero}); !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("zero seats err=%v, want 400", err)
	}
}

func TestService_DeleteEvent_CreatorOnly(t *testing.T) {
	t.Parallel()

	f := newFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	trip := f.addTrip(t, "rome", alice, bob)

	view, err := f.svc.CreateEvent(context.Background(), bob, CreateEventInput{TripToken: trip.TripToken, Name: "Dinner"})
	if err != nil {
		t.Fatalf("CreateEvent err=%v", err)
	}

	// The trip owner is not the creator; they may not delete the event.
	ae := (*Error)(nil)
	if err := f.svc.DeleteEvent(context.Background(), alice, view.EventToken); !errors.As(err, &ae) || ae.Status != 403 || ae.Code != "NOT_ALLOWED" {
		t.Fatalf("owner delete err=%v, want NOT_ALLOWED 403", err)
	}

	if err := f.svc.DeleteEvent(context.Background(), bob, view.EventToken); err != nil {
		t.Fatalf("creator delete err=%v", err)
	}
	if err := f.svc.DeleteEvent(context.Background(), bob, view.EventToken); !errors.As(err, &ae) || ae.Code != "EVENT_NOT_FOUND" {
		t.Fatalf("double delete err=%v, want EVENT_NOT_FOUND", err)
	}
}

func TestService_JoinEvent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")
	mallory := f.addUser(t, "mallory")
	trip := f.addTrip(t, "rome", alice, bob, carol)

	seats := 2
	view, err := f.svc.CreateEvent(context.Background(), alice, CreateEventInput{TripToken: trip.TripToken, Name: "Tour", Seats: &seats})
	if err != nil {
		t.Fatalf("CreateEvent err=%v", err)
	}

	joined, err := f.svc.JoinEvent(context.Background(), bob, view.EventToken)
	if err != nil {
		t.Fatalf("JoinEvent err=%v", err)
	}
	if len(joined.Participants) != 2 {
		t.Fatalf("participants=%+v", joined.Participants)
	}

	ae := (*Error)(nil)

	// Trip membership is required; outsiders cannot learn the event exists.
	if _, err := f.svc.JoinEvent(context.Background(), mallory, view.EventToken); !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "EVENT_NOT_FOUND" {
		t.Fatalf("stranger err=%v, want EVENT_NOT_FOUND 404", err)
	}

	// The creator and existing participants conflict.
	if _, err := f.svc.JoinEvent(context.Background(), alice, view.EventToken); !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "ALREADY_PARTICIPANT" {
		t.Fatalf("creator join err=%v, want ALREADY_PARTICIPANT 409", err)
	}
	if _, err := f.svc.JoinEvent(context.Background(), bob, view.EventToken); !errors.As(err, &ae) || ae.Code != "ALREADY_PARTICIPANT" {
		t.Fatalf("rejoin err=%v, want ALREADY_PARTICIPANT", err)
	}

	// Both seats are taken now.
	if _, err := f.svc.JoinEvent(context.Background(), carol, view.EventToken); !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "EVENT_FULL" {
		t.Fatalf("full join err=%v, want EVENT_FULL 409", err)
	}
}

func TestService_LeaveEvent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")
	trip := f.addTrip(t, "rome", alice, bob, carol)

	view, err := f.svc.CreateEvent(context.Background(), alice, CreateEventInput{TripToken: trip.TripToken, Name: "Tour"})
	if err != nil {
		t.Fatalf("CreateEvent err=%v", err)
	}
	if _, err := f.svc.JoinEvent(context.Background(), bob, view.EventToken); err != nil {
		t.Fatalf("JoinEvent err=%v", err)
	}

	left, err := f.svc.LeaveEvent(context.Background(), bob, view.EventToken)
	if err != nil {
		t.Fatalf("LeaveEvent err=%v", err)
	}
	if len(left.Participants) != 1 || left.Participants[0].UserToken != alice.UserToken {
		t.Fatalf("participants=%+v", left.Participants)
	}

	ae := (*Error)(nil)
	// The creator deletes instead of leaving; a non-participant has nothing
	// to leave.
	if _, err := f.svc.LeaveEvent(context.Background(), alice, view.EventToken); !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "NOT_PARTICIPANT" {
		t.Fatalf("creator leave err=%v, want NOT_PARTICIPANT 409", err)
	}
	if _, err := f.svc.LeaveEvent(context.Background(), carol, view.EventToken); !errors.As(err, &ae) || ae.Code != "NOT_PARTICIPANT" {
		t.Fatalf("non-participant leave err=%v, want NOT_PARTICIPANT", err)
	}
}

func TestService_AddInfo(t *testing.T) {
	t.Parallel()

	f := newFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	trip := f.addTrip(t, "rome", alice, bob)

	view, err := f.svc.CreateEvent(context.Background(), alice, CreateEventInput{TripToken: trip.TripToken, Name: "Tour"})
	if err != nil {
		t.Fatalf("CreateEvent err=%v", err)
	}
	if _, err := f.svc.JoinEvent(context.Background(), bob, view.EventToken); err != nil {
		t.Fatalf("JoinEvent err=%v", err)
	}

	withInfo, err := f.svc.AddInfo(context.Background(), bob, view.EventToken, InfoInput{Name: "meeting point", Type: "note", URI: "geo:41.89,12.49"})
	if err != nil {
		t.Fatalf("AddInfo err=%v", err)
	}
	if len(withInfo.Infos) != 1 || withInfo.Infos[0].Author.UserToken != bob.UserToken {
		t.Fatalf("infos=%+v", withInfo.Infos)
	}

	ae := (*Error)(nil)
	if _, err := f.svc.AddInfo(context.Background(), bob, view.EventToken, InfoInput{Name: "", URI: ""}); !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("empty info err=%v, want 400", err)
	}

	// Trip members who have not joined the event may not contribute.
	carol := f.addUser(t, "carol")
	trip.ParticipantIDs = append(trip.ParticipantIDs, carol.ID)
	if err := f.trips.Save(context.Background(), trip); err != nil {
		t.Fatalf("save trip: %v", err)
	}
	if _, err := f.svc.AddInfo(context.Background(), carol, view.EventToken, InfoInput{Name: "x", URI: "y"}); !errors.As(err, &ae) || ae.Status != 403 || ae.Code != "NOT_ALLOWED" {
		t.Fatalf("non-participant info err=%v, want NOT_ALLOWED 403", err)
	}
}
