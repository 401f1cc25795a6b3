package ledger

import (
	"context"
	"time"
)

// Filter narrows entry listings for history reads and exports
type Filter struct {
	// From and To bound the entry date range (inclusive); zero values mean
	// unbounded.
	From time.Time
	To   time.Time
	// IncludeDeleted includes tombstoned entries, used by audit tooling.
	IncludeDeleted bool
}

// Matches reports whether an entry passes the filter
func (f Filter) Matches(e *Entry) bool {
	if e.Deleted && !f.IncludeDeleted {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	return true
}

// Repository defines the persistence interface for ledger entries. Entries
// are append-only; the only mutation is the deletion tombstone.
type Repository interface {
	// PutEntry appends a new entry to an account's history
	PutEntry(ctx context.Context, ownerID string, e *Entry) error

	// GetEntry retrieves an entry by ID
	GetEntry(ctx context.Context, ownerID, accountID, entryID string) (*Entry, error)

	// ListEntries retrieves an account's entries in creation order
	ListEntries(ctx context.Context, ownerID, accountID string, filter Filter) ([]*Entry, error)

	// MarkDeleted tombstones an entry
	MarkDeleted(ctx context.Context, ownerID, accountID, entryID string) error
}
