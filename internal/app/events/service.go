package events

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/triplink-app/triplink-api/internal/app/authz"
	"github.com/triplink-app/triplink-api/internal/app/projection"
	"github.com/triplink-app/triplink-api/internal/domain"
	clockport "github.com/triplink-app/triplink-api/internal/ports/out/clock"
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
	"github.com/triplink-app/triplink-api/internal/platform/token"
)

// Service implements event operations. Event participation never propagates
// to user documents; the event's own participant list is the single side to
// maintain.
type Service struct {
	events eventrepo.Repository
	trips  triprepo.Repository
	users  userrepo.Repository
	clk    clockport.Clock

	newEventID func() domain.EventID
	newToken   func() string
}

func NewService(eventsRepo eventrepo.Repository, tripsRepo triprepo.Repository, usersRepo userrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		events: eventsRepo,
		trips:  tripsRepo,
		users:  usersRepo,
		clk:    clk,
		newEventID: func() domain.EventID {
			return domain.EventID(uuid.NewString())
		},
		newToken: token.New,
	}
}

// SetNewEventIDForTest overrides event ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewEventIDForTest(fn func() domain.EventID) {
	if fn != nil {
		s.newEventID = fn
	}
}

// SetNewTokenForTest overrides opaque token generation for deterministic tests.
func (s *Service) SetNewTokenForTest(fn func() string) {
	if fn != nil {
		s.newToken = fn
	}
}

// CreateEvent creates an event on a trip the caller belongs to. The caller
// becomes creator and first participant; infos are stamped with fresh tokens
// and the caller as author.
func (s *Service) CreateEvent(ctx context.Context, caller userrepo.User, in CreateEventInput) (domain.EventView, error) {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return domain.EventView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"name": "must be non-empty"}}
	}
	if in.Seats != nil && *in.Seats < 1 {
		return domain.EventView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"seats": "must be >= 1"}}
	}

	t, err := s.getTripByToken(ctx, in.TripToken)
	if err != nil {
		return domain.EventView{}, err
	}
	if !authz.CanAccessTrip(t, caller.ID) {
		// Same answer as for a trip that does not exist.
		return domain.EventView{}, errTripNotFound()
	}

	infos := make([]eventrepo.Info, 0, len(in.Infos))
	for _, info := range in.Infos {
		infos = append(infos, eventrepo.Info{
			InfoToken: s.newToken(),
			AuthorID:  caller.ID,
			Name:      info.Name,
			Type:      info.Type,
			URI:       info.URI,
		})
	}

	var seats *int
	if in.Seats != nil {
		v := *in.Seats
		seats = &v
	}

	now := s.clk.Now()
	e := eventrepo.Event{
		ID:             s.newEventID(),
		EventToken:     s.newToken(),
		TripID:         t.ID,
		CreatorID:      caller.ID,
		Category:       in.Category,
		Name:           name,
		Description:    in.Description,
		Place:          in.Place,
		Date:           in.Date,
		TimeStart:      in.TimeStart,
		TimeEnd:        in.TimeEnd,
		Seats:          seats,
		Ticket:         in.Ticket,
		ParticipantIDs: []domain.UserID{caller.ID},
		Infos:          infos,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return domain.EventView{}, err
	}
	return s.projectEvent(ctx, e, t.TripToken)
}

// DeleteEvent removes an event. Only the creator may, even after leaving the
// trip. No cascade: nothing else references events.
func (s *Service) DeleteEvent(ctx context.Context, caller userrepo.User, eventToken string) error {
	e, err := s.getEvent(ctx, eventToken)
	if err != nil {
		return err
	}
	if !authz.CanMutateEvent(e, caller.ID) {
		return errNotAllowed()
	}
	return s.events.Delete(ctx, e.ID)
}

// JoinEvent adds the caller to the event's participant list.
func (s *Service) JoinEvent(ctx context.Context, caller userrepo.User, eventToken string) (domain.EventView, error) {
	e, err := s.getEvent(ctx, eventToken)
	if err != nil {
		return domain.EventView{}, err
	}
	t, err := s.trips.GetByID(ctx, e.TripID)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return domain.EventView{}, errTripNotFound()
		}
		return domain.EventView{}, err
	}

	switch authz.CheckJoinEvent(e, t, caller.ID) {
	case authz.JoinAllowed:
	case authz.JoinNotMember:
		return domain.EventView{}, errEventNotFound()
	case authz.JoinIsCreator, authz.JoinAlreadyParticipant:
		return domain.EventView{}, &Error{Status: http.StatusConflict, Code: "ALREADY_PARTICIPANT", Message: "User is already a participant of this event"}
	case authz.JoinFull:
		return domain.EventView{}, &Error{Status: http.StatusConflict, Code: "EVENT_FULL", Message: "Event has no free seats"}
	}

	e.ParticipantIDs = append(e.ParticipantIDs, caller.ID)
	e.UpdatedAt = s.clk.Now()
	if err := s.events.Save(ctx, e); err != nil {
		return domain.EventView{}, err
	}
	return s.projectEvent(ctx, e, t.TripToken)
}

// LeaveEvent removes the caller from the event's participant list. The
// creator cannot leave their own event; they delete it instead.
func (s *Service) LeaveEvent(ctx context.Context, caller userrepo.User, eventToken string) (domain.EventView, error) {
	e, err := s.getEvent(ctx, eventToken)
	if err != nil {
		return domain.EventView{}, err
	}
	if e.CreatorID == caller.ID {
		return domain.EventView{}, &Error{Status: http.StatusConflict, Code: "NOT_PARTICIPANT", Message: "The creator cannot leave their own event"}
	}
	if !containsUser(e.ParticipantIDs, caller.ID) {
		return domain.EventView{}, &Error{Status: http.StatusConflict, Code: "NOT_PARTICIPANT", Message: "User is not a participant of this event"}
	}

	kept := make([]domain.UserID, 0, len(e.ParticipantIDs)-1)
	for _, id := range e.ParticipantIDs {
		if id != caller.ID {
			kept = append(kept, id)
		}
	}
	e.ParticipantIDs = kept
	e.UpdatedAt = s.clk.Now()
	if err := s.events.Save(ctx, e); err != nil {
		return domain.EventView{}, err
	}

	t, err := s.trips.GetByID(ctx, e.TripID)
	if err != nil {
		return domain.EventView{}, err
	}
	return s.projectEvent(ctx, e, t.TripToken)
}

// AddInfo appends an info sub-document to an event. Any event participant may
// contribute; the caller becomes the info's author.
func (s *Service) AddInfo(ctx context.Context, caller userrepo.User, eventToken string, in InfoInput) (domain.EventView, error) {
	if in.Name == "" || in.URI == "" {
		return domain.EventView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"name": "must be non-empty", "uri": "must be non-empty"}}
	}
	e, err := s.getEvent(ctx, eventToken)
	if err != nil {
		return domain.EventView{}, err
	}
	if !containsUser(e.ParticipantIDs, caller.ID) {
		return domain.EventView{}, errNotAllowed()
	}

	e.Infos = append(e.Infos, eventrepo.Info{
		InfoToken: s.newToken(),
		AuthorID:  caller.ID,
		Name:      in.Name,
		Type:      in.Type,
		URI:       in.URI,
	})
	e.UpdatedAt = s.clk.Now()
	if err := s.events.Save(ctx, e); err != nil {
		return domain.EventView{}, err
	}

	t, err := s.trips.GetByID(ctx, e.TripID)
	if err != nil {
		return domain.EventView{}, err
	}
	return s.projectEvent(ctx, e, t.TripToken)
}

func (s *Service) getEvent(ctx context.Context, eventToken string) (eventrepo.Event, error) {
	if eventToken == "" {
		return eventrepo.Event{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"tokenEvent": "must be non-empty"}}
	}
	e, err := s.events.GetByToken(ctx, eventToken)
	if err != nil {
		if errors.Is(err, eventrepo.ErrNotFound) {
			return eventrepo.Event{}, errEventNotFound()
		}
		return eventrepo.Event{}, err
	}
	return e, nil
}

func (s *Service) getTripByToken(ctx context.Context, tripToken string) (triprepo.Trip, error) {
	if tripToken == "" {
		return triprepo.Trip{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"tokenTrip": "must be non-empty"}}
	}
	t, err := s.trips.GetByToken(ctx, tripToken)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return triprepo.Trip{}, errTripNotFound()
		}
		return triprepo.Trip{}, err
	}
	return t, nil
}

func (s *Service) projectEvent(ctx context.Context, e eventrepo.Event, tripToken string) (domain.EventView, error) {
	ids := append([]domain.UserID{e.CreatorID}, e.ParticipantIDs...)
	for _, info := range e.Infos {
		ids = append(ids, info.AuthorID)
	}
	users := make(map[domain.UserID]userrepo.User, len(ids))
	for _, id := range ids {
		if _, ok := users[id]; ok {
			continue
		}
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return domain.EventView{}, err
		}
		users[id] = u
	}
	return projection.Event(e, tripToken, users)
}

func containsUser(ids []domain.UserID, user domain.UserID) bool {
	for _, id := range ids {
		if id == user {
			return true
		}
	}
	return false
}

func errTripNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: "TRIP_NOT_FOUND", Message: "Trip not found"}
}

func errEventNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: "EVENT_NOT_FOUND", Message: "Event not found"}
}

func errNotAllowed() *Error {
	return &Error{Status: http.StatusForbidden, Code: "NOT_ALLOWED", Message: "Not allowed"}
}
