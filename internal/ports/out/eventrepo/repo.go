package eventrepo

import (
	"context"
	"time"

	"github.com/triplink-app/triplink-api/internal/domain"
)

// Info is an embedded sub-document on an event (ticket link, logistics
// note, ...).
type Info struct {
	InfoToken string
	AuthorID  domain.UserID
	Name      string
	Type      string
	URI       string
}

// Event is the persistence shape used by the event repository.
// It is not an HTTP DTO.
type Event struct {
	ID domain.EventID

	EventToken string

	TripID    domain.TripID
	CreatorID domain.UserID

	Category    string
	Name        string
	Description string
	Place       string

	Date      time.Time
	TimeStart time.Time
	TimeEnd   time.Time

	// Seats is the capacity; nil means unbounded.
	Seats  *int
	Ticket string

	// ParticipantIDs includes the creator, always.
	ParticipantIDs []domain.UserID

	Infos []Info

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted events.
type Repository interface {
	Create(ctx context.Context, e Event) error
	Save(ctx context.Context, e Event) error

	GetByID(ctx context.Context, id domain.EventID) (Event, error)
	GetByToken(ctx context.Context, eventToken string) (Event, error)

	// ListByTrip returns all events scoped to a trip, ordered by Date then
	// TimeStart ascending for deterministic responses.
	ListByTrip(ctx context.Context, tripID domain.TripID) ([]Event, error)

	Delete(ctx context.Context, id domain.EventID) error
	// DeleteByTrip removes every event scoped to the trip. Used by the trip
	// delete cascade.
	DeleteByTrip(ctx context.Context, tripID domain.TripID) error
}
