package auth

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// userContextKey is the key type for storing the authenticated user in context.Context.
type userContextKey struct{}

// WithUser returns a new context carrying the authenticated user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the authenticated user, reporting false for anonymous
// requests.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(models.User)
	if !ok || user.ID == "" {
		return models.User{}, false
	}
	return user, true
}
