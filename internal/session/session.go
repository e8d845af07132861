// Package session carries the authenticated user of a request through a context.Context.
package session

import (
	"context"

	"github.com/dpshade/pocket-placeholders/internal/models"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

var userKey = key{}

// WithUser returns a new context in which id is the authenticated user.
// A zero id leaves the context unauthenticated.
func WithUser(ctx context.Context, id models.UserID) context.Context {
	if id.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, userKey, id)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (models.UserID, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userKey).(models.UserID)
	return id, ok && !id.IsZero()
}

// IsAuthenticated reports whether ctx carries a user.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := UserFromContext(ctx)
	return ok
}
