package budget

import (
	"context"
)

// Repository defines the persistence interface for shared budgets
type Repository interface {
	// CreateBudget persists a new shared budget
	CreateBudget(ctx context.Context, ownerID string, b *SharedBudget) (*SharedBudget, error)

	// GetBudget retrieves a budget by ID
	GetBudget(ctx context.Context, ownerID, budgetID string) (*SharedBudget, error)

	// UpdateBudget overwrites a budget's participant bookkeeping
	UpdateBudget(ctx context.Context, ownerID string, b *SharedBudget) error

	// DeleteBudget removes a budget; only used to compensate a failed
	// creation saga
	DeleteBudget(ctx context.Context, ownerID, budgetID string) error

	// ListBudgets retrieves all of the owner's budgets
	ListBudgets(ctx context.Context, ownerID string) ([]*SharedBudget, error)
}
