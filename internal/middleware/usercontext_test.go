package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

func TestUserFromContext(t *testing.T) {
	t.Parallel()

	name := "Test User"
	user := &models.User{
		ID:    uuid.New(),
		Email: "user@example.com",
		Name:  &name,
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req = req.WithContext(SetUserInContext(req.Context(), user))

	got := UserFromContext(req)
	if got == nil {
		t.Fatal("expected user in context, got nil")
	}
	if got.ID != user.ID {
		t.Errorf("expected user ID %s, got %s", user.ID, got.ID)
	}
	if got.Email != user.Email {
		t.Errorf("expected email %q, got %q", user.Email, got.Email)
	}
}

func TestUserFromContextMissing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/test", nil)
	if got := UserFromContext(req); got != nil {
		t.Errorf("expected nil user for bare context, got %+v", got)
	}
}

func TestUserFromContextWrongType(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, "not a user"))

	if got := UserFromContext(req); got != nil {
		t.Errorf("expected nil user for mismatched value type, got %+v", got)
	}
}
