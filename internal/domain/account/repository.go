package account

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the persistence interface for accounts. Every call is
// scoped to the owning user; implementations must never return another
// user's accounts.
type Repository interface {
	// CreateAccount persists a new account
	CreateAccount(ctx context.Context, ownerID string, a *Account) (*Account, error)

	// GetAccount retrieves an account by ID
	GetAccount(ctx context.Context, ownerID, accountID string) (*Account, error)

	// ListAccounts retrieves all of the owner's accounts
	ListAccounts(ctx context.Context, ownerID string) ([]*Account, error)

	// ListAccountsByKind retrieves the owner's accounts of one kind
	ListAccountsByKind(ctx context.Context, ownerID string, kind Kind) ([]*Account, error)

	// UpdateBalance overwrites the account's current balance. Writes are
	// last-write-wins; there is no version check.
	UpdateBalance(ctx context.Context, ownerID, accountID string, balance decimal.Decimal) error
}
