package userrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.UserID]userrepo.User
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.UserID]userrepo.User),
	}
}

func (r *Repo) Create(ctx context.Context, u userrepo.User) error {
	_ = ctx
	if u.ID == "" {
		return userrepo.ErrAlreadyExists // treat empty ID as invalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return userrepo.ErrAlreadyExists
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *Repo) Save(ctx context.Context, u userrepo.User) error {
	_ = ctx
	if u.ID == "" {
		return userrepo.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Repo) GetBySessionToken(ctx context.Context, token string) (userrepo.User, error) {
	return r.findOne(ctx, func(u userrepo.User) bool { return token != "" && u.SessionToken == token })
}

func (r *Repo) GetByUserToken(ctx context.Context, token string) (userrepo.User, error) {
	return r.findOne(ctx, func(u userrepo.User) bool { return token != "" && u.UserToken == token })
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (userrepo.User, error) {
	return r.findOne(ctx, func(u userrepo.User) bool { return username != "" && u.Username == username })
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (userrepo.User, error) {
	lower := strings.ToLower(email)
	return r.findOne(ctx, func(u userrepo.User) bool { return lower != "" && strings.ToLower(u.Email) == lower })
}

func (r *Repo) findOne(ctx context.Context, match func(userrepo.User) bool) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return userrepo.User{}, userrepo.ErrNotFound
}

func cloneUser(u userrepo.User) userrepo.User {
	cp := u
	if u.Friends != nil {
		cp.Friends = append([]domain.UserID(nil), u.Friends...)
	}
	if u.Trips != nil {
		cp.Trips = append([]domain.TripID(nil), u.Trips...)
	}
	if u.Documents != nil {
		cp.Documents = make([]userrepo.Document, len(u.Documents))
		for i, d := range u.Documents {
			cd := d
			if d.TripID != nil {
				v := *d.TripID
				cd.TripID = &v
			}
			cp.Documents[i] = cd
		}
	}
	return cp
}
