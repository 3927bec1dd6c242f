package middleware

import (
	"context"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

// SetUserInContext injects a user as if the auth middleware had run.
// Exported for handler tests in other packages.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
