package accounts

import (
	"context"
	"errors"
	"net/http"
	"net/mail"

	"github.com/google/uuid"

	"github.com/triplink-app/triplink-api/internal/app/projection"
	"github.com/triplink-app/triplink-api/internal/domain"
	clockport "github.com/triplink-app/triplink-api/internal/ports/out/clock"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
	"github.com/triplink-app/triplink-api/internal/platform/password"
	"github.com/triplink-app/triplink-api/internal/platform/token"
)

// Service implements registration, signin and session resolution.
type Service struct {
	users userrepo.Repository
	trips triprepo.Repository
	clk   clockport.Clock

	newUserID func() domain.UserID
	newToken  func() string
}

func NewService(users userrepo.Repository, trips triprepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		users: users,
		trips: trips,
		clk:   clk,
		newUserID: func() domain.UserID {
			return domain.UserID(uuid.NewString())
		},
		newToken: token.New,
	}
}

// SetNewUserIDForTest overrides user ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewUserIDForTest(fn func() domain.UserID) {
	if fn != nil {
		s.newUserID = fn
	}
}

// SetNewTokenForTest overrides opaque token generation for deterministic tests.
func (s *Service) SetNewTokenForTest(fn func() string) {
	if fn != nil {
		s.newToken = fn
	}
}

// SignUp registers a new account. If the email belongs to an inactive invitee
// placeholder, the placeholder is claimed: it keeps its stable user token (so
// existing trip references stay valid) and receives the chosen username, the
// password and a fresh session token.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (domain.SessionView, error) {
	username := domain.NormalizeHumanName(in.Username)
	if username == "" {
		return domain.SessionView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"username": "must be non-empty"}}
	}
	email := domain.NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.SessionView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"email": "must be a valid email address"}}
	}
	if len(in.Password) < password.MinLength {
		return domain.SessionView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"password": "must be at least 8 characters"}}
	}

	if existing, err := s.users.GetByUsername(ctx, username); err == nil {
		if existing.Active || existing.Email != email {
			return domain.SessionView{}, &Error{Status: http.StatusConflict, Code: "USER_EXISTS", Message: "User already exists"}
		}
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.SessionView{}, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Active:
		return domain.SessionView{}, &Error{Status: http.StatusConflict, Code: "USER_EXISTS", Message: "User already exists"}
	case err == nil:
		return s.claimPlaceholder(ctx, existing, username, in.Password)
	case !errors.Is(err, userrepo.ErrNotFound):
		return domain.SessionView{}, err
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return domain.SessionView{}, err
	}
	now := s.clk.Now()
	u := userrepo.User{
		ID:           s.newUserID(),
		SessionToken: s.newToken(),
		UserToken:    s.newToken(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return domain.SessionView{}, err
	}
	return projection.Session(u), nil
}

func (s *Service) claimPlaceholder(ctx context.Context, u userrepo.User, username, plaintext string) (domain.SessionView, error) {
	hash, err := password.Hash(plaintext)
	if err != nil {
		return domain.SessionView{}, err
	}
	u.Username = username
	u.PasswordHash = hash
	u.Active = true
	u.SessionToken = s.newToken()
	u.UpdatedAt = s.clk.Now()
	if err := s.users.Save(ctx, u); err != nil {
		return domain.SessionView{}, err
	}
	return projection.Session(u), nil
}

// SignIn authenticates by email and password and rotates the session token.
// The rotated token invalidates any previously issued one.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (domain.SessionView, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return domain.SessionView{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields"}
	}

	// A wrong password and an unknown email produce the same outcome.
	notFound := &Error{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found or wrong password"}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.SessionView{}, notFound
		}
		return domain.SessionView{}, err
	}
	if !u.Active {
		// Placeholders cannot authenticate until claimed through signup.
		return domain.SessionView{}, notFound
	}
	if !password.Verify(in.Password, u.PasswordHash) {
		return domain.SessionView{}, notFound
	}

	u.SessionToken = s.newToken()
	u.UpdatedAt = s.clk.Now()
	if err := s.users.Save(ctx, u); err != nil {
		return domain.SessionView{}, err
	}
	return projection.Session(u), nil
}

// ResolveSession maps a bearer session token to the user it belongs to.
// Absent, malformed and unknown tokens are indistinguishable.
func (s *Service) ResolveSession(ctx context.Context, sessionToken string) (userrepo.User, error) {
	notFound := &Error{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
	if sessionToken == "" {
		return userrepo.User{}, notFound
	}
	u, err := s.users.GetBySessionToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return userrepo.User{}, notFound
		}
		return userrepo.User{}, err
	}
	if !u.Active {
		return userrepo.User{}, notFound
	}
	return u, nil
}

// ResolveUserToken maps a stable public user token to the user it identifies.
// Unlike session resolution, inactive placeholders do resolve here: they are
// valid invite targets.
func (s *Service) ResolveUserToken(ctx context.Context, userToken string) (userrepo.User, error) {
	if userToken == "" {
		return userrepo.User{}, &Error{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
	}
	u, err := s.users.GetByUserToken(ctx, userToken)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return userrepo.User{}, &Error{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
		}
		return userrepo.User{}, err
	}
	return u, nil
}

// GetMyProfile returns the caller's own profile view, with document trip
// references resolved to trip tokens.
func (s *Service) GetMyProfile(ctx context.Context, caller userrepo.User) (domain.ProfileView, error) {
	tripTokens := make(map[domain.TripID]string)
	for _, d := range caller.Documents {
		if d.TripID == nil {
			continue
		}
		if _, ok := tripTokens[*d.TripID]; ok {
			continue
		}
		t, err := s.trips.GetByID(ctx, *d.TripID)
		if err != nil {
			if errors.Is(err, triprepo.ErrNotFound) {
				// The trip was deleted; the document simply loses its pin.
				continue
			}
			return domain.ProfileView{}, err
		}
		tripTokens[t.ID] = t.TripToken
	}
	return projection.Profile(caller, tripTokens), nil
}

// EnsureInvitee returns the user registered under email, materializing an
// inactive placeholder when nobody is. The placeholder's user token is a valid
// invite target and survives the eventual signup claim.
func (s *Service) EnsureInvitee(ctx context.Context, email string) (domain.UserSummary, error) {
	normalized := domain.NormalizeEmail(email)
	if _, err := mail.ParseAddress(normalized); err != nil {
		return domain.UserSummary{}, &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Missing or empty fields", Details: map[string]any{"email": "must be a valid email address"}}
	}

	u, err := s.users.GetByEmail(ctx, normalized)
	if err == nil {
		return projection.User(u), nil
	}
	if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.UserSummary{}, err
	}

	now := s.clk.Now()
	placeholder := userrepo.User{
		ID:           s.newUserID(),
		SessionToken: s.newToken(),
		UserToken:    s.newToken(),
		Email:        normalized,
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, placeholder); err != nil {
		return domain.UserSummary{}, err
	}
	return projection.User(placeholder), nil
}
