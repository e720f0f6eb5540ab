package httpapi

import (
	"net/http"
	"strings"

	"github.com/triplink-app/triplink-api/internal/app/accounts"
)

// NewAuthMiddleware enforces Authorization: Bearer <sessionToken> and stores
// the resolved user in request context.
//
// A missing or malformed header is a 401; a token that does not resolve gets
// the session resolver's own error, which deliberately does not reveal
// whether the token ever existed.
func NewAuthMiddleware(accountsSvc *accounts.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing Authorization header", nil)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed Authorization header", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}

			u, err := accountsSvc.ResolveSession(r.Context(), token)
			if err != nil {
				writeAppError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
