package trips

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
	"github.com/triplink-app/triplink-api/internal/platform/config"
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

type fixture struct {
	svc    *Service
	users  userrepo.Repository
	events eventrepo.Repository
	clk    *memclock.ManualClock
}

func newFixture(policy config.InvitePolicy) *fixture {
	users := memuserrepo.NewRepo()
	tripsRepo := memtriprepo.NewRepo()
	events := memeventrepo.NewRepo()
	clk := memclock.NewManualClock(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	return &fixture{
		svc:    NewService(tripsRepo, users, events, clk, policy),
		users:  users,
		events: events,
		clk:    clk,
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
		PasswordHash: "$2a$10$hash",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f *fixture) reload(t *testing.T, u userrepo.User) userrepo.User {
	t.Helper()
	fresh, err := f.users.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload %s: %v", u.Username, err)
	}
	return fresh
}

func (f *fixture) addEvent(t *testing.T, tripID domain.TripID, creator userrepo.User, name string) eventrepo.Event {
	t.Helper()
	now := f.clk.Now()
	e := eventrepo.Event{
		ID:             domain.EventID(uuid.NewString()),
		EventToken:     "event-" + name,
		TripID:         tripID,
		CreatorID:      creator.ID,
		Name:           name,
		ParticipantIDs: []domain.UserID{creator.ID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := f.events.Create(context.Background(), e); err != nil {
		t.Fatalf("create event %s: %v", name, err)
	}
	return e
}

func tripTokenOf(t *testing.T, created TripCreated) string {
	t.Helper()
	if created.Trip.TripToken == "" {
		t.Fatalf("created trip has no token")
	}
	return created.Trip.TripToken
}

func TestService_CreateTrip_MaintainsBothSides(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
		Name:      "Lisbon",
		DateStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		// The owner's own token and the duplicate are both ignored.
		ParticipantTokens: []string{bob.UserToken, carol.UserToken, owner.UserToken, bob.UserToken},
	})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	if created.Trip.Owner.UserToken != owner.UserToken || created.Trip.Owner.Username != "alice" {
		t.Fatalf("owner=%+v", created.Trip.Owner)
	}
	if len(created.Trip.Participants) != 2 {
		t.Fatalf("participants=%+v", created.Trip.Participants)
	}
	for _, p := range created.Trip.Participants {
		if p.UserToken == owner.UserToken {
			t.Fatalf("owner leaked into participants")
		}
	}
	if len(created.DroppedTokens) != 0 {
		t.Fatalf("dropped=%v", created.DroppedTokens)
	}

	// Every member's trip list gained the back reference.
	for _, u := range []userrepo.User{owner, bob, carol} {
		fresh := f.reload(t, u)
		if len(fresh.Trips) != 1 {
			t.Fatalf("%s trips=%v", u.Username, fresh.Trips)
		}
	}
}

func TestService_CreateTrip_InvitePolicies(t *testing.T) {
	t.Parallel()

	t.Run("lenient drops and reports", func(t *testing.T) {
		t.Parallel()
		f := newFixture(config.InviteLenient)
		owner := f.addUser(t, "alice")
		bob := f.addUser(t, "bob")

		created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
			Name:              "Lisbon",
			ParticipantTokens: []string{bob.UserToken, "ghost-token"},
		})
		if err != nil {
			t.Fatalf("CreateTrip err=%v", err)
		}
		if len(created.Trip.Participants) != 1 {
			t.Fatalf("participants=%+v", created.Trip.Participants)
		}
		if len(created.DroppedTokens) != 1 || created.DroppedTokens[0] != "ghost-token" {
			t.Fatalf("dropped=%v", created.DroppedTokens)
		}
	})

	t.Run("strict fails the request", func(t *testing.T) {
		t.Parallel()
		f := newFixture(config.InviteStrict)
		owner := f.addUser(t, "alice")

		_, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
			Name:              "Lisbon",
			ParticipantTokens: []string{"ghost-token"},
		})
		ae := (*Error)(nil)
		if !errors.As(err, &ae) || ae.Status != 400 || ae.Code != "UNRESOLVED_PARTICIPANTS" {
			t.Fatalf("err=%v, want UNRESOLVED_PARTICIPANTS 400", err)
		}
		toks, _ := ae.Details["tokens"].([]string)
		if len(toks) != 1 || toks[0] != "ghost-token" {
			t.Fatalf("details=%v", ae.Details)
		}
	})
}

func TestService_CreateTrip_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")

	_, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{Name: "   "})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 400 || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("empty name err=%v", err)
	}

	_, err = f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
		Name:      "Backwards",
		DateStart: time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.As(err, &ae) || ae.Status != 400 || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("inverted dates err=%v", err)
	}
}

func TestService_JoinTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{Name: "Lisbon"})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	token := tripTokenOf(t, created)

	view, err := f.svc.JoinTrip(context.Background(), bob, token)
	if err != nil {
		t.Fatalf("JoinTrip err=%v", err)
	}
	if len(view.Participants) != 1 || view.Participants[0].UserToken != bob.UserToken {
		t.Fatalf("participants=%+v", view.Participants)
	}
	if fresh := f.reload(t, bob); len(fresh.Trips) != 1 {
		t.Fatalf("bob trips=%v", fresh.Trips)
	}

	// Joining twice is a conflict, as is the owner joining their own trip.
	ae := (*Error)(nil)
	if _, err := f.svc.JoinTrip(context.Background(), bob, token); !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "ALREADY_PARTICIPANT" {
		t.Fatalf("rejoin err=%v, want ALREADY_PARTICIPANT 409", err)
	}
	if _, err := f.svc.JoinTrip(context.Background(), owner, token); !errors.As(err, &ae) || ae.Code != "ALREADY_PARTICIPANT" {
		t.Fatalf("owner join err=%v, want ALREADY_PARTICIPANT", err)
	}
}

func TestService_LeaveTrip_ParticipantLeaves(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
		Name:              "Lisbon",
		ParticipantTokens: []string{bob.UserToken},
	})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}

	res, err := f.svc.LeaveTrip(context.Background(), f.reload(t, bob), tripTokenOf(t, created))
	if err != nil {
		t.Fatalf("LeaveTrip err=%v", err)
	}
	if res.Deleted || res.OwnershipTransferred || res.Trip == nil {
		t.Fatalf("res=%+v", res)
	}
	if len(res.Trip.Participants) != 0 {
		t.Fatalf("participants=%+v", res.Trip.Participants)
	}
	if fresh := f.reload(t, bob); len(fresh.Trips) != 0 {
		t.Fatalf("bob trips=%v", fresh.Trips)
	}
}

func TestService_LeaveTrip_OwnerHandsOff(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
		Name:              "Lisbon",
		ParticipantTokens: []string{bob.UserToken, carol.UserToken},
	})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}

	res, err := f.svc.LeaveTrip(context.Background(), f.reload(t, owner), tripTokenOf(t, created))
	if err != nil {
		t.Fatalf("LeaveTrip err=%v", err)
	}
	if !res.OwnershipTransferred || res.Deleted || res.Trip == nil {
		t.Fatalf("res=%+v", res)
	}
	// The first participant is promoted; the rest stay participants.
	if res.Trip.Owner.UserToken != bob.UserToken {
		t.Fatalf("new owner=%+v", res.Trip.Owner)
	}
	if len(res.Trip.Participants) != 1 || res.Trip.Participants[0].UserToken != carol.UserToken {
		t.Fatalf("participants=%+v", res.Trip.Participants)
	}
	if fresh := f.reload(t, owner); len(fresh.Trips) != 0 {
		t.Fatalf("departed owner trips=%v", fresh.Trips)
	}
}

func TestService_LeaveTrip_LastMemberDeletes(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{Name: "Solo"})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	token := tripTokenOf(t, created)

	res, err := f.svc.LeaveTrip(context.Background(), f.reload(t, owner), token)
	if err != nil {
		t.Fatalf("LeaveTrip err=%v", err)
	}
	if !res.Deleted || res.Trip != nil {
		t.Fatalf("res=%+v", res)
	}

	ae := (*Error)(nil)
	if _, _, err := f.svc.GetTrip(context.Background(), f.reload(t, owner), token); !errors.As(err, &ae) || ae.Code != "TRIP_NOT_FOUND" {
		t.Fatalf("deleted trip err=%v", err)
	}
	if fresh := f.reload(t, owner); len(fresh.Trips) != 0 {
		t.Fatalf("owner trips=%v", fresh.Trips)
	}
}

func TestService_LeaveTrip_NotMember(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	mallory := f.addUser(t, "mallory")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{Name: "Lisbon"})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}

	_, err = f.svc.LeaveTrip(context.Background(), mallory, tripTokenOf(t, created))
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "NOT_PARTICIPANT" {
		t.Fatalf("err=%v, want NOT_PARTICIPANT 409", err)
	}
}

func TestService_DeleteTrip_CascadesAndGuards(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	mallory := f.addUser(t, "mallory")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
		Name:              "Lisbon",
		ParticipantTokens: []string{bob.UserToken},
	})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	token := tripTokenOf(t, created)

	tripID := f.reload(t, owner).Trips[0]
	f.addEvent(t, tripID, owner, "dinner")

	// A stranger gets not-found; a participant is recognized but forbidden.
	ae := (*Error)(nil)
	if err := f.svc.DeleteTrip(context.Background(), mallory, token); !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "TRIP_NOT_FOUND" {
		t.Fatalf("stranger delete err=%v, want TRIP_NOT_FOUND 404", err)
	}
	if err := f.svc.DeleteTrip(context.Background(), f.reload(t, bob), token); !errors.As(err, &ae) || ae.Status != 403 || ae.Code != "NOT_ALLOWED" {
		t.Fatalf("participant delete err=%v, want NOT_ALLOWED 403", err)
	}

	if err := f.svc.DeleteTrip(context.Background(), f.reload(t, owner), token); err != nil {
		t.Fatalf("owner delete err=%v", err)
	}

	// Both sides of the relationship and the trip's events are gone.
	for _, u := range []userrepo.User{owner, bob} {
		if fresh := f.reload(t, u); len(fresh.Trips) != 0 {
			t.Fatalf("%s trips=%v", u.Username, fresh.Trips)
		}
	}
	evs, err := f.events.ListByTrip(context.Background(), tripID)
	if err != nil || len(evs) != 0 {
		t.Fatalf("events after cascade: %v, %v", evs, err)
	}
}

func TestService_UpdateTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	mallory := f.addUser(t, "mallory")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
		Name:              "Lisbon",
		Description:       "west coast",
		ParticipantTokens: []string{bob.UserToken},
	})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	token := tripTokenOf(t, created)

	view, err := f.svc.UpdateTrip(context.Background(), f.reload(t, owner), token, UpdateTripInput{
		Name:        Some("  Lisbon   2026 "),
		Description: Null[string](),
	})
	if err != nil {
		t.Fatalf("UpdateTrip err=%v", err)
	}
	if view.Name != "Lisbon 2026" {
		t.Fatalf("name=%q", view.Name)
	}
	if view.Description != "" {
		t.Fatalf("description=%q", view.Description)
	}

	ae := (*Error)(nil)
	if _, err := f.svc.UpdateTrip(context.Background(), f.reload(t, owner), token, UpdateTripInput{Name: Null[string]()}); !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("null name err=%v, want 400", err)
	}
	if _, err := f.svc.UpdateTrip(context.Background(), mallory, token, UpdateTripInput{Name: Some("X")}); !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "TRIP_NOT_FOUND" {
		t.Fatalf("stranger update err=%v, want TRIP_NOT_FOUND 404", err)
	}
	if _, err := f.svc.UpdateTrip(context.Background(), f.reload(t, bob), token, UpdateTripInput{Name: Some("X")}); !errors.As(err, &ae) || ae.Status != 403 || ae.Code != "NOT_ALLOWED" {
		t.Fatalf("participant update err=%v, want NOT_ALLOWED 403", err)
	}
}

func TestService_ListUpcomingAndPast(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")

	// Today is 2026-06-15. A trip ending today is still upcoming.
	mk := func(name string, endDay int) {
		t.Helper()
		_, err := f.svc.CreateTrip(context.Background(), f.reload(t, owner), CreateTripInput{
			Name:      name,
			DateStart: time.Date(2026, 6, endDay-1, 0, 0, 0, 0, time.UTC),
			DateEnd:   time.Date(2026, 6, endDay, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("CreateTrip %s: %v", name, err)
		}
	}
	mk("ended", 10)
	mk("ends today", 15)
	mk("ahead", 20)

	// A dangling back reference from an interrupted cascade is skipped.
	caller := f.reload(t, owner)
	caller.Trips = append(caller.Trips, domain.TripID(uuid.NewString()))
	if err := f.users.Save(context.Background(), caller); err != nil {
		t.Fatalf("save caller: %v", err)
	}
	caller = f.reload(t, owner)

	upcoming, err := f.svc.ListUpcoming(context.Background(), caller)
	if err != nil {
		t.Fatalf("ListUpcoming err=%v", err)
	}
	if len(upcoming) != 2 || upcoming[0].Name != "ends today" || upcoming[1].Name != "ahead" {
		t.Fatalf("upcoming=%+v", upcoming)
	}

	past, err := f.svc.ListPast(context.Background(), caller)
	if err != nil {
		t.Fatalf("ListPast err=%v", err)
	}
	if len(past) != 1 || past[0].Name != "ended" {
		t.Fatalf("past=%+v", past)
	}
}

func TestService_GetTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(config.InviteLenient)
	owner := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	mallory := f.addUser(t, "mallory")

	created, err := f.svc.CreateTrip(context.Background(), owner, CreateTripInput{
		Name:              "Lisbon",
		ParticipantTokens: []string{bob.UserToken},
	})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	token := tripTokenOf(t, created)
	tripID := f.reload(t, owner).Trips[0]
	f.addEvent(t, tripID, owner, "dinner")

	view, events, err := f.svc.GetTrip(context.Background(), f.reload(t, bob), token)
	if err != nil {
		t.Fatalf("GetTrip err=%v", err)
	}
	if view.TripToken != token || len(events) != 1 || events[0].Name != "dinner" {
		t.Fatalf("view=%+v events=%+v", view, events)
	}
	if events[0].TripToken != token {
		t.Fatalf("event tripToken=%q", events[0].TripToken)
	}

	ae := (*Error)(nil)
	if _, _, err := f.svc.GetTrip(context.Background(), mallory, token); !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "TRIP_NOT_FOUND" {
		t.Fatalf("stranger err=%v, want TRIP_NOT_FOUND 404", err)
	}
	if _, _, err := f.svc.GetTrip(context.Background(), mallory, "no-such-trip"); !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "TRIP_NOT_FOUND" {
		t.Fatalf("unknown token err=%v, want TRIP_NOT_FOUND 404", err)
	}
}
