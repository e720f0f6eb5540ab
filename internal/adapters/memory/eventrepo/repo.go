package eventrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
)

// Repo is an in-memory implementation of eventrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.EventID]eventrepo.Event
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.EventID]eventrepo.Event),
	}
}

func (r *Repo) Create(ctx context.Context, e eventrepo.Event) error {
	_ = ctx
	if e.ID == "" {
		return eventrepo.ErrAlreadyExists // treat empty ID as invalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; ok {
		return eventrepo.ErrAlreadyExists
	}
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *Repo) Save(ctx context.Context, e eventrepo.Event) error {
	_ = ctx
	if e.ID == "" {
		return eventrepo.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.EventID) (eventrepo.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return eventrepo.Event{}, eventrepo.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *Repo) GetByToken(ctx context.Context, eventToken string) (eventrepo.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if eventToken == "" {
		return eventrepo.Event{}, eventrepo.ErrNotFound
	}
	for _, e := range r.byID {
		if e.EventToken == eventToken {
			return cloneEvent(e), nil
		}
	}
	return eventrepo.Event{}, eventrepo.ErrNotFound
}

func (r *Repo) ListByTrip(ctx context.Context, tripID domain.TripID) ([]eventrepo.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]eventrepo.Event, 0)
	for _, e := range r.byID {
		if e.TripID == tripID {
			out = append(out, cloneEvent(e))
		}
	}
	sortEvents(out)
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.EventID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return eventrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) DeleteByTrip(ctx context.Context, tripID domain.TripID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.byID {
		if e.TripID == tripID {
			delete(r.byID, id)
		}
	}
	return nil
}

func cloneEvent(e eventrepo.Event) eventrepo.Event {
	cp := e
	if e.ParticipantIDs != nil {
		cp.ParticipantIDs = append([]domain.UserID(nil), e.ParticipantIDs...)
	}
	if e.Infos != nil {
		cp.Infos = append([]eventrepo.Info(nil), e.Infos...)
	}
	if e.Seats != nil {
		v := *e.Seats
		cp.Seats = &v
	}
	return cp
}

func sortEvents(es []eventrepo.Event) {
	// By date, then start time; created-at and ID break remaining ties.
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.TimeStart.Equal(b.TimeStart) {
			return a.TimeStart.Before(b.TimeStart)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return string(a.ID) < string(b.ID)
	})
}
