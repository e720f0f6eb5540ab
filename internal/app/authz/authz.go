// Package authz holds the pure authorization checks shared by the trip and
// event services. Every function here decides over already-loaded records and
// performs no I/O.
package authz

import (
	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
)

// JoinDecision explains why an event join is refused.
type JoinDecision int

const (
	JoinAllowed JoinDecision = iota
	// JoinNotMember: the user does not belong to the event's trip.
	JoinNotMember
	// JoinIsCreator: the creator is a participant from the start and cannot join again.
	JoinIsCreator
	// JoinAlreadyParticipant: duplicate join.
	JoinAlreadyParticipant
	// JoinFull: seat capacity reached.
	JoinFull
)

// CanAccessTrip reports whether the user may read the trip: owner or
// participant.
func CanAccessTrip(t triprepo.Trip, user domain.UserID) bool {
	if t.OwnerID == user {
		return true
	}
	return containsUser(t.ParticipantIDs, user)
}

// CanMutateTrip reports whether the user may edit or delete the trip.
// Participants may read, join and leave, but only the owner mutates.
func CanMutateTrip(t triprepo.Trip, user domain.UserID) bool {
	return t.OwnerID == user
}

// CanMutateEvent reports whether the user may edit or delete the event.
// Only the creator may; this holds even if the creator has since left the
// trip.
func CanMutateEvent(e eventrepo.Event, user domain.UserID) bool {
	return e.CreatorID == user
}

// CheckJoinEvent decides an event join: the user must belong to the event's
// trip, must not be the creator, must not already participate, and a seat
// must be free when capacity is set.
func CheckJoinEvent(e eventrepo.Event, t triprepo.Trip, user domain.UserID) JoinDecision {
	if !CanAccessTrip(t, user) {
		return JoinNotMember
	}
	if e.CreatorID == user {
		return JoinIsCreator
	}
	if containsUser(e.ParticipantIDs, user) {
		return JoinAlreadyParticipant
	}
	if e.Seats != nil && len(e.ParticipantIDs) >= *e.Seats {
		return JoinFull
	}
	return JoinAllowed
}

func containsUser(ids []domain.UserID, user domain.UserID) bool {
	for _, id := range ids {
		if id == user {
			return true
		}
	}
	return false
}
