package httpapi

import (
	"context"

	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

type userKey struct{}

// WithUser stores the authenticated user in the request context.
func WithUser(ctx context.Context, u userrepo.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFromContext(ctx context.Context) (userrepo.User, bool) {
	u, ok := ctx.Value(userKey{}).(userrepo.User)
	return u, ok && u.ID != ""
}
