package domain

// UserID is an internal identifier for a user record. It never leaves the
// system; external callers only ever see the user's opaque tokens.
type UserID string

// TripID is an internal identifier for a trip record.
type TripID string

// EventID is an internal identifier for an event record.
type EventID string
