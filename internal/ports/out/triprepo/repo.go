package triprepo

import (
	"context"
	"time"

	"github.com/triplink-app/triplink-api/internal/domain"
)

// Trip is the persistence shape used by the trip repository.
// It is not an HTTP DTO.
type Trip struct {
	ID domain.TripID

	// TripToken is the stable opaque reference handed to clients.
	TripToken string

	OwnerID domain.UserID
	// ParticipantIDs excludes the owner, always.
	ParticipantIDs []domain.UserID

	Name        string
	DateStart   time.Time // date-only semantics at the edges
	DateEnd     time.Time // date-only semantics at the edges
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted trips.
type Repository interface {
	Create(ctx context.Context, t Trip) error
	Save(ctx context.Context, t Trip) error

	GetByID(ctx context.Context, id domain.TripID) (Trip, error)
	GetByToken(ctx context.Context, tripToken string) (Trip, error)

	Delete(ctx context.Context, id domain.TripID) error
}
