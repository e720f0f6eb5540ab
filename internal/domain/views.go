package domain

import "time"

// The view types below are the only shapes that leave the system. They carry
// opaque tokens and public fields exclusively; internal record IDs, password
// hashes and other users' session tokens must never appear here.

// UserSummary is the public projection of a user, nested inside trip and
// event views.
type UserSummary struct {
	UserToken string `json:"tokenUser"`
	Username  string `json:"username"`
}

// SessionView is returned by signup and signin. It is the only view that
// carries the caller's own session token.
type SessionView struct {
	SessionToken string `json:"tokenSession"`
	UserToken    string `json:"tokenUser"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

// DocumentView is a user-held document (ticket, booking, ...) optionally
// pinned to a trip.
type DocumentView struct {
	DocToken  string  `json:"tokenDocument"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	URI       string  `json:"uri"`
	TripToken *string `json:"tokenTrip,omitempty"`
}

// ProfileView is the caller's own profile. Unlike UserSummary it includes the
// email and documents, but still never the password hash.
type ProfileView struct {
	UserToken string         `json:"tokenUser"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Documents []DocumentView `json:"documents"`
}

// TripView is the external representation of a trip with its owner and
// participants resolved to user summaries.
type TripView struct {
	TripToken    string        `json:"tokenTrip"`
	Name         string        `json:"name"`
	DateStart    time.Time     `json:"dateStart"`
	DateEnd      time.Time     `json:"dateEnd"`
	Description  string        `json:"description"`
	Owner        UserSummary   `json:"user"`
	Participants []UserSummary `json:"participants"`
}

// EventInfoView is an embedded info item (ticket link, logistics note, ...)
// with its author resolved.
type EventInfoView struct {
	InfoToken string      `json:"tokenInfo"`
	Author    UserSummary `json:"user"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	URI       string      `json:"uri"`
}

// EventView is the external representation of an event scoped to a trip.
type EventView struct {
	EventToken   string          `json:"tokenEvent"`
	TripToken    string          `json:"tokenTrip"`
	Category     string          `json:"category"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Place        string          `json:"place"`
	Date         time.Time       `json:"date"`
	TimeStart    time.Time       `json:"timeStart"`
	TimeEnd      time.Time       `json:"timeEnd"`
	Seats        *int            `json:"seats"`
	Ticket       string          `json:"ticket"`
	Creator      UserSummary     `json:"user"`
	Participants []UserSummary   `json:"participants"`
	Infos        []EventInfoView `json:"infos"`
}
