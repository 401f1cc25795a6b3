package user

import (
	"github.com/centavoapp/backend/internal/domain/errors"
)

// Context identifies the owner on whose behalf a ledger operation runs.
// Accounts, entries and shared budgets are owned exclusively by the user who
// created them, so every repository call is scoped through this context.
type Context struct {
	UserID string
}

// NewContext creates an owner context for the given user ID
func NewContext(userID string) (*Context, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID is required")
	}
	return &Context{UserID: userID}, nil
}
