package trips

import (
	"time"

	"github.com/triplink-app/triplink-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type CreateTripInput struct {
	Name        string
	DateStart   time.Time
	DateEnd     time.Time
	Description string

	// ParticipantTokens are stable user tokens of the invitees. How
	// unresolvable tokens are treated depends on the configured invite policy.
	ParticipantTokens []string
}

// TripCreated carries the projected trip plus, under the lenient invite
// policy, the participant tokens that did not resolve and were dropped.
type TripCreated struct {
	Trip          domain.TripView
	DroppedTokens []string
}

type UpdateTripInput struct {
	// Name is optional and cannot be null.
	Name        Optional[string]
	DateStart   Optional[time.Time]
	DateEnd     Optional[time.Time]
	Description Optional[string]
}

// LeaveResult reports what LeaveTrip did to the trip.
type LeaveResult struct {
	// Trip is nil when the departure deleted the trip (last member left).
	Trip *domain.TripView
	// Deleted is true when the trip and its events were removed.
	Deleted bool
	// OwnershipTransferred is true when the departing owner's role moved to
	// the first remaining participant.
	OwnershipTransferred bool
}
