package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/triplink-app/triplink-api/internal/app/trips"
	"github.com/triplink-app/triplink-api/internal/domain"
)

// Request bodies. Tri-state PATCH fields use nullable.Nullable so "omitted",
// "null" and "value" survive JSON decoding.

type signUpRequest struct {
	Username string              `json:"username"`
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

type signInRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

type inviteRequest struct {
	Email openapi_types.Email `json:"email"`
}

type createTripRequest struct {
	Name         string             `json:"name"`
	DateStart    openapi_types.Date `json:"dateStart"`
	DateEnd      openapi_types.Date `json:"dateEnd"`
	Description  string             `json:"description"`
	Participants []string           `json:"participants"`
}

type updateTripRequest struct {
	Name        nullable.Nullable[string]             `json:"name"`
	DateStart   nullable.Nullable[openapi_types.Date] `json:"dateStart"`
	DateEnd     nullable.Nullable[openapi_types.Date] `json:"dateEnd"`
	Description nullable.Nullable[string]             `json:"description"`
}

type infoRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type createEventRequest struct {
	TripToken   string        `json:"tokenTrip"`
	Category    string        `json:"category"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Place       string        `json:"place"`
	Date        time.Time     `json:"date"`
	TimeStart   time.Time     `json:"timeStart"`
	TimeEnd     time.Time     `json:"timeEnd"`
	Seats       *int          `json:"seats"`
	Ticket      string        `json:"ticket"`
	Infos       []infoRequest `json:"infos"`
}

// Response envelopes, mirroring the `{"result": true, ...}` shape the API
// has always spoken.

type sessionResponse struct {
	Result bool               `json:"result"`
	User   domain.SessionView `json:"user"`
}

type profileResponse struct {
	Result bool               `json:"result"`
	User   domain.ProfileView `json:"user"`
}

type inviteResponse struct {
	Result bool               `json:"result"`
	User   domain.UserSummary `json:"user"`
}

type tripResponse struct {
	Result bool            `json:"result"`
	Trip   domain.TripView `json:"trip"`
	// DroppedParticipants lists invite tokens that did not resolve, under the
	// lenient invite policy.
	DroppedParticipants []string `json:"droppedParticipants,omitempty"`
}

type tripWithEventsResponse struct {
	Result bool               `json:"result"`
	Trip   domain.TripView    `json:"trip"`
	Events []domain.EventView `json:"events"`
}

type tripsResponse struct {
	Result bool              `json:"result"`
	Trips  []domain.TripView `json:"trips"`
}

type leaveTripResponse struct {
	Result               bool             `json:"result"`
	Trip                 *domain.TripView `json:"trip,omitempty"`
	Deleted              bool             `json:"deleted,omitempty"`
	OwnershipTransferred bool             `json:"ownershipTransferred,omitempty"`
}

type eventResponse struct {
	Result bool             `json:"result"`
	Event  domain.EventView `json:"event"`
}

type okResponse struct {
	Result bool `json:"result"`
}

func optionalString(n nullable.Nullable[string]) trips.Optional[string] {
	if !n.IsSpecified() {
		return trips.Unspecified[string]()
	}
	if n.IsNull() {
		return trips.Null[string]()
	}
	v, err := n.Get()
	if err != nil {
		return trips.Unspecified[string]()
	}
	return trips.Some(v)
}

func optionalDate(n nullable.Nullable[openapi_types.Date]) trips.Optional[time.Time] {
	if !n.IsSpecified() {
		return trips.Unspecified[time.Time]()
	}
	if n.IsNull() {
		return trips.Null[time.Time]()
	}
	v, err := n.Get()
	if err != nil {
		return trips.Unspecified[time.Time]()
	}
	return trips.Some(v.Time)
}
