// Package httpapi is the HTTP adapter: it decodes requests, calls the
// application services and encodes the view types into the response envelope.
// No business rules live here.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/triplink-app/triplink-api/internal/app/accounts"
	"github.com/triplink-app/triplink-api/internal/app/events"
	"github.com/triplink-app/triplink-api/internal/app/trips"
	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

type Server struct {
	Accounts *accounts.Service
	Trips    *trips.Service
	Events   *events.Service
}

func NewServer(accountsSvc *accounts.Service, tripsSvc *trips.Service, eventsSvc *events.Service) *Server {
	return &Server{
		Accounts: accountsSvc,
		Trips:    tripsSvc,
		Events:   eventsSvc,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body", nil)
		return false
	}
	return true
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.Accounts.SignUp(r.Context(), accounts.SignUpInput{
		Username: req.Username,
		Email:    string(req.Email),
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Result: true, User: sess})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.Accounts.SignIn(r.Context(), accounts.SignInInput{
		Email:    string(req.Email),
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Result: true, User: sess})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	profile, err := s.Accounts.GetMyProfile(r.Context(), caller)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Result: true, User: profile})
}

// handleInvite resolves an email to an invitable user, creating an inactive
// placeholder when nobody is registered under it. The returned user token can
// then be passed as a trip participant.
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	summary, err := s.Accounts.EnsureInvitee(r.Context(), string(req.Email))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inviteResponse{Result: true, User: summary})
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req createTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := s.Trips.CreateTrip(r.Context(), caller, trips.CreateTripInput{
		Name:              req.Name,
		DateStart:         req.DateStart.Time,
		DateEnd:           req.DateEnd.Time,
		Description:       req.Description,
		ParticipantTokens: req.Participants,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripResponse{
		Result:              true,
		Trip:                created.Trip,
		DroppedParticipants: created.DroppedTokens,
	})
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req updateTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Trips.UpdateTrip(r.Context(), caller, chi.URLParam(r, "tripToken"), trips.UpdateTripInput{
		Name:        optionalString(req.Name),
		DateStart:   optionalDate(req.DateStart),
		DateEnd:     optionalDate(req.DateEnd),
		Description: optionalString(req.Description),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripResponse{Result: true, Trip: view})
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	if err := s.Trips.DeleteTrip(r.Context(), caller, chi.URLParam(r, "tripToken")); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{Result: true})
}

func (s *Server) handleListUpcomingTrips(w http.ResponseWriter, r *http.Request) {
	s.listTrips(w, r, s.Trips.ListUpcoming)
}

func (s *Server) handleListPastTrips(w http.ResponseWriter, r *http.Request) {
	s.listTrips(w, r, s.Trips.ListPast)
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, caller userrepo.User) ([]domain.TripView, error)) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	views, err := list(r.Context(), caller)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripsResponse{Result: true, Trips: views})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	trip, eventViews, err := s.Trips.GetTrip(r.Context(), caller, chi.URLParam(r, "tripToken"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripWithEventsResponse{Result: true, Trip: trip, Events: eventViews})
}

func (s *Server) handleJoinTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	view, err := s.Trips.JoinTrip(r.Context(), caller, chi.URLParam(r, "tripToken"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripResponse{Result: true, Trip: view})
}

func (s *Server) handleLeaveTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	res, err := s.Trips.LeaveTrip(r.Context(), caller, chi.URLParam(r, "tripToken"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leaveTripResponse{
		Result:               true,
		Trip:                 res.Trip,
		Deleted:              res.Deleted,
		OwnershipTransferred: res.OwnershipTransferred,
	})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req createEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	infos := make([]events.InfoInput, 0, len(req.Infos))
	for _, info := range req.Infos {
		infos = append(infos, events.InfoInput{Name: info.Name, Type: info.Type, URI: info.URI})
	}
	view, err := s.Events.CreateEvent(r.Context(), caller, events.CreateEventInput{
		TripToken:   req.TripToken,
		Category:    req.Category,
		Name:        req.Name,
		Description: req.Description,
		Place:       req.Place,
		Date:        req.Date,
		TimeStart:   req.TimeStart,
		TimeEnd:     req.TimeEnd,
		Seats:       req.Seats,
		Ticket:      req.Ticket,
		Infos:       infos,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventResponse{Result: true, Event: view})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	if err := s.Events.DeleteEvent(r.Context(), caller, chi.URLParam(r, "eventToken")); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{Result: true})
}

func (s *Server) handleJoinEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	view, err := s.Events.JoinEvent(r.Context(), caller, chi.URLParam(r, "eventToken"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Result: true, Event: view})
}

func (s *Server) handleLeaveEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	view, err := s.Events.LeaveEvent(r.Context(), caller, chi.URLParam(r, "eventToken"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Result: true, Event: view})
}

func (s *Server) handleAddEventInfo(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req infoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.Events.AddInfo(r.Context(), caller, chi.URLParam(r, "eventToken"), events.InfoInput{
		Name: req.Name,
		Type: req.Type,
		URI:  req.URI,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventResponse{Result: true, Event: view})
}
