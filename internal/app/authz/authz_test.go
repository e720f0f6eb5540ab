package authz_test

import (
	"testing"

	"github.com/triplink-app/triplink-api/internal/app/authz"
	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
)

func TestCanAccessTrip(t *testing.T) {
	t.Parallel()

	trip := triprepo.Trip{OwnerID: "owner", ParticipantIDs: []domain.UserID{"p1", "p2"}}

	cases := []struct {
		name string
		user domain.UserID
		want bool
	}{
		{"owner", "owner", true},
		{"participant", "p2", true},
		{"stranger", "nobody", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := authz.CanAccessTrip(trip, tc.user); got != tc.want {
				t.Fatalf("CanAccessTrip(%q)=%v want %v", tc.user, got, tc.want)
			}
		})
	}
}

func TestCanMutateTrip_OwnerOnly(t *testing.T) {
	t.Parallel()

	trip := triprepo.Trip{OwnerID: "owner", ParticipantIDs: []domain.UserID{"p1"}}
	if !authz.CanMutateTrip(trip, "owner") {
		t.Fatalf("owner denied")
	}
	if authz.CanMutateTrip(trip, "p1") {
		t.Fatalf("participant allowed to mutate")
	}
}

func TestCheckJoinEvent(t *testing.T) {
	t.Parallel()

	trip := triprepo.Trip{OwnerID: "owner", ParticipantIDs: []domain.UserID{"p1", "p2", "p3"}}
	two := 2
	ev := eventrepo.Event{
		CreatorID:      "owner",
		ParticipantIDs: []domain.UserID{"owner", "p1"},
		Seats:          &two,
	}

	cases := []struct {
		name string
		user domain.UserID
		want authz.JoinDecision
	}{
		{"stranger", "nobody", authz.JoinNotMember},
		{"creator", "owner", authz.JoinIsCreator},
		{"duplicate", "p1", authz.JoinAlreadyParticipant},
		{"full", "p2", authz.JoinFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := authz.CheckJoinEvent(ev, trip, tc.user); got != tc.want {
				t.Fatalf("CheckJoinEvent(%q)=%v want %v", tc.user, got, tc.want)
			}
		})
	}

	ev.Seats = nil
	if got := authz.CheckJoinEvent(ev, trip, "p2"); got != authz.JoinAllowed {
		t.Fatalf("unbounded event should allow join, got %v", got)
	}
}
