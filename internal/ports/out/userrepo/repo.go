package userrepo

import (
	"context"
	"time"

	"github.com/triplink-app/triplink-api/internal/domain"
)

// Document is a user-held attachment (ticket, booking confirmation, ...)
// optionally pinned to a trip.
type Document struct {
	DocToken string
	Type     string
	Name     string
	URI      string
	TripID   *domain.TripID
}

// User is the persistence shape used by the user repository.
// It is not an HTTP DTO.
type User struct {
	ID domain.UserID

	// SessionToken is the bearer credential. It rotates on every signin and
	// when a placeholder account is claimed.
	SessionToken string
	// UserToken is the stable public identifier used to reference this user
	// from outside (invites, projections).
	UserToken string

	Username     string
	Email        string // stored normalized (lowercase)
	PasswordHash string

	// Active is false for invitee placeholders created before the person
	// registered. Inactive users cannot sign in.
	Active bool

	Friends []domain.UserID
	// Trips is the user's side of the user<->trip relationship. Order is the
	// order of joining and is preserved by every mutation.
	Trips     []domain.TripID
	Documents []Document

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted users.
//
// Token lookups are exact-match; a miss is ErrNotFound regardless of whether
// the token is malformed, absent or simply unknown.
type Repository interface {
	Create(ctx context.Context, u User) error
	Save(ctx context.Context, u User) error

	GetByID(ctx context.Context, id domain.UserID) (User, error)
	GetBySessionToken(ctx context.Context, token string) (User, error)
	GetByUserToken(ctx context.Context, token string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	// GetByEmail matches case-insensitively; callers pass a normalized email.
	GetByEmail(ctx context.Context, email string) (User, error)
}
