package trips

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/triplink-app/triplink-api/internal/app/authz"
	"github.com/triplink-app/triplink-api/internal/app/projection"
	"github.com/triplink-app/triplink-api/internal/domain"
	clockport "github.com/triplink-app/triplink-api/internal/ports/out/clock"
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
	"github.com/triplink-app/triplink-api/internal/platform/config"
	"github.com/triplink-app/triplink-api/internal/platform/token"
)

// Service implements trip operations and the user<->trip relationship
// maintenance. Multi-entity updates are applied in a fixed order: the trip
// record (the membership list) is written first, then each affected user's
// trip list. A crash in between leaves a trip whose member lacks the back
// reference, which listing skips and logs rather than trusting.
type Service struct {
	trips  triprepo.Repository
	users  userrepo.Repository
	events eventrepo.Repository
	clk    clockport.Clock

	invitePolicy config.InvitePolicy

	newTripID func() domain.TripID
	newToken  func() string
}

func NewService(tripsRepo triprepo.Repository, usersRepo userrepo.Repository, eventsRepo eventrepo.Repository, clk clockport.Clock, invitePolicy config.InvitePolicy) *Service {
	return &Service{
		trips:        tripsRepo,
		users:        usersRepo,
		events:       eventsRepo,
		clk:          clk,
		invitePolicy: invitePolicy,
		newTripID: func() domain.TripID {
			return domain.TripID(uuid.NewString())
		},
		newToken: token.New,
	}
}

// SetNewTripIDForTest overrides trip ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewTripIDForTest(fn func() domain.TripID) {
	if fn != nil {
		s.newTripID = fn
	}
}

// SetNewTokenForTest overrides opaque token generation for deterministic tests.
func (s *Service) SetNewTokenForTest(fn func() string) {
	if fn != nil {
		s.newToken = fn
	}
}

func (s *Service) CreateTrip(ctx context.Context, owner userrepo.User, in CreateTripInput) (TripCreated, error) {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return TripCreated{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"name": "must be non-empty"}}
	}
	if !in.DateStart.IsZero() && !in.DateEnd.IsZero() && in.DateEnd.Before(in.DateStart) {
		return TripCreated{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"dateEnd": "must be on or after dateStart"}}
	}

	participants, dropped, err := s.resolveParticipants(ctx, owner, in.ParticipantTokens)
	if err != nil {
		return TripCreated{}, err
	}

	now := s.clk.Now()
	t := triprepo.Trip{
		ID:          s.newTripID(),
		TripToken:   s.newToken(),
		OwnerID:     owner.ID,
		Name:        name,
		DateStart:   in.DateStart,
		DateEnd:     in.DateEnd,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	users := map[domain.UserID]userrepo.User{owner.ID: owner}
	for _, p := range participants {
		t.ParticipantIDs = append(t.ParticipantIDs, p.ID)
		users[p.ID] = p
	}

	if err := s.trips.Create(ctx, t); err != nil {
		return TripCreated{}, err
	}

	// Back references: participants first, owner last, so a failure log names
	// exactly who is missing the trip.
	for _, p := range participants {
		if err := s.appendTripRef(ctx, p, t.ID); err != nil {
			slog.ErrorContext(ctx, "trip created but participant trip list update failed",
				"tripToken", t.TripToken, "userToken", p.UserToken, "err", err)
			return TripCreated{}, err
		}
	}
	if err := s.appendTripRef(ctx, owner, t.ID); err != nil {
		slog.ErrorContext(ctx, "trip created but owner trip list update failed",
			"tripToken", t.TripToken, "userToken", owner.UserToken, "err", err)
		return TripCreated{}, err
	}

	view, err := projection.Trip(t, users)
	if err != nil {
		return TripCreated{}, err
	}
	return TripCreated{Trip: view, DroppedTokens: dropped}, nil
}

// resolveParticipants maps invite tokens to users. The owner's own token and
// duplicates are ignored. Unresolvable tokens fail the request under the
// strict policy and are dropped (and reported) under the lenient one.
func (s *Service) resolveParticipants(ctx context.Context, owner userrepo.User, tokens []string) ([]userrepo.User, []string, error) {
	var (
		resolved []userrepo.User
		dropped  []string
		seen     = map[domain.UserID]bool{owner.ID: true}
	)
	for _, tok := range tokens {
		u, err := s.users.GetByUserToken(ctx, tok)
		if err != nil {
			if errors.Is(err, userrepo.ErrNotFound) {
				dropped = append(dropped, tok)
				continue
			}
			return nil, nil, err
		}
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		resolved = append(resolved, u)
	}
	if len(dropped) > 0 && s.invitePolicy == config.InviteStrict {
		return nil, nil, &Error{
			Status:  http.StatusBadRequest,
			Code:    "UNRESOLVED_PARTICIPANTS",
			Message: "Some participant tokens could not be resolved",
			Details: map[string]any{"tokens": dropped},
		}
	}
	return resolved, dropped, nil
}

func (s *Service) UpdateTrip(ctx context.Context, caller userrepo.User, tripToken string, in UpdateTripInput) (domain.TripView, error) {
	t, err := s.getTrip(ctx, tripToken)
	if err != nil {
		return domain.TripView{}, err
	}
	if !authz.CanAccessTrip(t, caller.ID) {
		// Strangers cannot learn the trip exists.
		return domain.TripView{}, errTripNotFound()
	}
	if !authz.CanMutateTrip(t, caller.ID) {
		return domain.TripView{}, errNotAllowed()
	}

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			return domain.TripView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"name": "cannot be null"}}
		}
		name := domain.NormalizeHumanName(in.Name.Value())
		if name == "" {
			return domain.TripView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"name": "must be non-empty"}}
		}
		t.Name = name
	}
	if in.DateStart.IsSpecified() && !in.DateStart.IsNull() {
		t.DateStart = in.DateStart.Value().UTC()
	}
	if in.DateEnd.IsSpecified() && !in.DateEnd.IsNull() {
		t.DateEnd = in.DateEnd.Value().UTC()
	}
	if in.Description.IsSpecified() {
		if in.Description.IsNull() {
			t.Description = ""
		} else {
			t.Description = in.Description.Value()
		}
	}
	if !t.DateStart.IsZero() && !t.DateEnd.IsZero() && t.DateEnd.Before(t.DateStart) {
		return domain.TripView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"dateEnd": "must be on or after dateStart"}}
	}

	t.UpdatedAt = s.clk.Now()
	if err := s.trips.Save(ctx, t); err != nil {
		return domain.TripView{}, err
	}
	return s.projectTrip(ctx, t)
}

func (s *Service) DeleteTrip(ctx context.Context, caller userrepo.User, tripToken string) error {
	t, err := s.getTrip(ctx, tripToken)
	if err != nil {
		return err
	}
	if !authz.CanAccessTrip(t, caller.ID) {
		return errTripNotFound()
	}
	if !authz.CanMutateTrip(t, caller.ID) {
		return errNotAllowed()
	}
	return s.deleteTripCascade(ctx, t)
}

// deleteTripCascade removes the trip everywhere it is referenced. Order:
// member back references first, then the trip's events, the trip record last.
// A crash mid-sequence therefore leaves a trip some member no longer
// references, which listing detects and skips.
func (s *Service) deleteTripCascade(ctx context.Context, t triprepo.Trip) error {
	memberIDs := append([]domain.UserID{t.OwnerID}, t.ParticipantIDs...)
	for _, id := range memberIDs {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, userrepo.ErrNotFound) {
				continue
			}
			return err
		}
		if err := s.removeTripRef(ctx, u, t.ID); err != nil {
			slog.ErrorContext(ctx, "trip delete: member trip list update failed",
				"tripToken", t.TripToken, "userToken", u.UserToken, "err", err)
			return err
		}
	}
	if err := s.events.DeleteByTrip(ctx, t.ID); err != nil {
		slog.ErrorContext(ctx, "trip delete: event cascade failed", "tripToken", t.TripToken, "err", err)
		return err
	}
	if err := s.trips.Delete(ctx, t.ID); err != nil {
		slog.ErrorContext(ctx, "trip delete: trip record removal failed", "tripToken", t.TripToken, "err", err)
		return err
	}
	return nil
}

func (s *Service) JoinTrip(ctx context.Context, caller userrepo.User, tripToken string) (domain.TripView, error) {
	t, err := s.getTrip(ctx, tripToken)
	if err != nil {
		return domain.TripView{}, err
	}
	if authz.CanAccessTrip(t, caller.ID) {
		return domain.TripView{}, &Error{Status: http.StatusConflict, Code: "ALREADY_PARTICIPANT", Message: "User is already a member of this trip"}
	}

	t.ParticipantIDs = append(t.ParticipantIDs, caller.ID)
	t.UpdatedAt = s.clk.Now()
	if err := s.trips.Save(ctx, t); err != nil {
		return domain.TripView{}, err
	}
	if err := s.appendTripRef(ctx, caller, t.ID); err != nil {
		slog.ErrorContext(ctx, "trip join: user trip list update failed",
			"tripToken", t.TripToken, "userToken", caller.UserToken, "err", err)
		return domain.TripView{}, err
	}
	return s.projectTrip(ctx, t)
}

func (s *Service) LeaveTrip(ctx context.Context, caller userrepo.User, tripToken string) (LeaveResult, error) {
	t, err := s.getTrip(ctx, tripToken)
	if err != nil {
		return LeaveResult{}, err
	}
	if !authz.CanAccessTrip(t, caller.ID) {
		return LeaveResult{}, &Error{Status: http.StatusConflict, Code: "NOT_PARTICIPANT", Message: "User is not a member of this trip"}
	}

	wasOwner := t.OwnerID == caller.ID
	if wasOwner {
		if len(t.ParticipantIDs) == 0 {
			// Last member out: the trip and its events go away.
			if err := s.deleteTripCascade(ctx, t); err != nil {
				return LeaveResult{}, err
			}
			return LeaveResult{Deleted: true}, nil
		}
		// Promote the first participant to owner.
		t.OwnerID = t.ParticipantIDs[0]
		t.ParticipantIDs = t.ParticipantIDs[1:]
	} else {
		t.ParticipantIDs = removeUser(t.ParticipantIDs, caller.ID)
	}

	t.UpdatedAt = s.clk.Now()
	if err := s.trips.Save(ctx, t); err != nil {
		return LeaveResult{}, err
	}
	if err := s.removeTripRef(ctx, caller, t.ID); err != nil {
		slog.ErrorContext(ctx, "trip leave: user trip list update failed",
			"tripToken", t.TripToken, "userToken", caller.UserToken, "err", err)
		return LeaveResult{}, err
	}

	view, err := s.projectTrip(ctx, t)
	if err != nil {
		return LeaveResult{}, err
	}
	return LeaveResult{Trip: &view, OwnershipTransferred: wasOwner}, nil
}

// ListUpcoming returns the caller's trips whose end date is today or later,
// in the caller's joining order.
func (s *Service) ListUpcoming(ctx context.Context, caller userrepo.User) ([]domain.TripView, error) {
	return s.listByDate(ctx, caller, true)
}

// ListPast returns the caller's trips that ended before today.
func (s *Service) ListPast(ctx context.Context, caller userrepo.User) ([]domain.TripView, error) {
	return s.listByDate(ctx, caller, false)
}

func (s *Service) listByDate(ctx context.Context, caller userrepo.User, upcoming bool) ([]domain.TripView, error) {
	today := s.clk.Today()
	out := make([]domain.TripView, 0, len(caller.Trips))
	for _, id := range caller.Trips {
		t, err := s.trips.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, triprepo.ErrNotFound) {
				// Dangling back reference from an interrupted cascade.
				slog.WarnContext(ctx, "user references a missing trip", "userToken", caller.UserToken, "tripID", string(id))
				continue
			}
			return nil, err
		}
		// Upcoming means the trip has not ended yet: DateEnd >= today.
		isUpcoming := !t.DateEnd.Before(today)
		if isUpcoming != upcoming {
			continue
		}
		view, err := s.projectTrip(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// GetTrip returns the trip and its events. Non-members get the same not-found
// answer as for a trip that does not exist.
func (s *Service) GetTrip(ctx context.Context, caller userrepo.User, tripToken string) (domain.TripView, []domain.EventView, error) {
	t, err := s.getTrip(ctx, tripToken)
	if err != nil {
		return domain.TripView{}, nil, err
	}
	if !authz.CanAccessTrip(t, caller.ID) {
		return domain.TripView{}, nil, errTripNotFound()
	}

	view, err := s.projectTrip(ctx, t)
	if err != nil {
		return domain.TripView{}, nil, err
	}

	evs, err := s.events.ListByTrip(ctx, t.ID)
	if err != nil {
		return domain.TripView{}, nil, err
	}
	eventViews := make([]domain.EventView, 0, len(evs))
	for _, e := range evs {
		users, err := s.loadUsers(ctx, eventUserIDs(e))
		if err != nil {
			return domain.TripView{}, nil, err
		}
		ev, err := projection.Event(e, t.TripToken, users)
		if err != nil {
			return domain.TripView{}, nil, err
		}
		eventViews = append(eventViews, ev)
	}
	return view, eventViews, nil
}

func (s *Service) getTrip(ctx context.Context, tripToken string) (triprepo.Trip, error) {
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

func (s *Service) projectTrip(ctx context.Context, t triprepo.Trip) (domain.TripView, error) {
	users, err := s.loadUsers(ctx, append([]domain.UserID{t.OwnerID}, t.ParticipantIDs...))
	if err != nil {
		return domain.TripView{}, err
	}
	return projection.Trip(t, users)
}

func (s *Service) loadUsers(ctx context.Context, ids []domain.UserID) (map[domain.UserID]userrepo.User, error) {
	out := make(map[domain.UserID]userrepo.User, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = u
	}
	return out, nil
}

func (s *Service) appendTripRef(ctx context.Context, u userrepo.User, tripID domain.TripID) error {
	// Re-read to avoid clobbering concurrent changes to the same user.
	fresh, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	for _, id := range fresh.Trips {
		if id == tripID {
			return nil
		}
	}
	fresh.Trips = append(fresh.Trips, tripID)
	fresh.UpdatedAt = s.clk.Now()
	return s.users.Save(ctx, fresh)
}

func (s *Service) removeTripRef(ctx context.Context, u userrepo.User, tripID domain.TripID) error {
	fresh, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	kept := fresh.Trips[:0]
	for _, id := range fresh.Trips {
		if id != tripID {
			kept = append(kept, id)
		}
	}
	fresh.Trips = kept
	fresh.UpdatedAt = s.clk.Now()
	return s.users.Save(ctx, fresh)
}

func eventUserIDs(e eventrepo.Event) []domain.UserID {
	ids := append([]domain.UserID{e.CreatorID}, e.ParticipantIDs...)
	for _, info := range e.Infos {
		ids = append(ids, info.AuthorID)
	}
	return ids
}

func removeUser(ids []domain.UserID, target domain.UserID) []domain.UserID {
	out := make([]domain.UserID, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func errTripNotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: "TRIP_NOT_FOUND", Message: "Trip not found"}
}

func errNotAllowed() *Error {
	return &Error{Status: http.StatusForbidden, Code: "NOT_ALLOWED", Message: "Not allowed"}
}
