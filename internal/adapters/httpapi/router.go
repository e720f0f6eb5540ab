package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/triplink-app/triplink-api/internal/platform/metrics"
)

type RouterOptions struct {
	// AuthMiddleware guards every route except signup, signin, /healthz and
	// /metrics. Defaults to NewAuthMiddleware over the server's accounts
	// service.
	AuthMiddleware func(http.Handler) http.Handler

	// RequestTimeout bounds in-flight requests; zero disables the timeout
	// middleware.
	RequestTimeout time.Duration
}

// NewRouter constructs the API HTTP router with default options.
func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	authMW := opts.AuthMiddleware
	if authMW == nil {
		authMW = NewAuthMiddleware(s.Accounts)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// Infra endpoints, unauthenticated.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/users/signup", s.handleSignUp)
	r.Post("/users/signin", s.handleSignIn)

	r.Group(func(r chi.Router) {
		r.Use(authMW)

		r.Get("/users/me", s.handleGetMe)
		r.Post("/users/invites", s.handleInvite)

		r.Post("/trips", s.handleCreateTrip)
		r.Get("/trips/next", s.handleListUpcomingTrips)
		r.Get("/trips/past", s.handleListPastTrips)
		r.Get("/trips/{tripToken}", s.handleGetTrip)
		r.Put("/trips/{tripToken}", s.handleUpdateTrip)
		r.Delete("/trips/{tripToken}", s.handleDeleteTrip)
		r.Post("/trips/{tripToken}/participants", s.handleJoinTrip)
		r.Delete("/trips/{tripToken}/participants", s.handleLeaveTrip)

		r.Post("/events", s.handleCreateEvent)
		r.Delete("/events/{eventToken}", s.handleDeleteEvent)
		r.Post("/events/{eventToken}/participants", s.handleJoinEvent)
		r.Delete("/events/{eventToken}/participants", s.handleLeaveEvent)
		r.Post("/events/{eventToken}/infos", s.handleAddEventInfo)
	})

	return r
}
