// Package events defines the change notifications the ledger core emits so
// collaborators (UI, notification dispatcher, export) can update
// incrementally instead of refetching everything.
package events

import (
	"context"
	"time"
)

// Kind identifies what changed
type Kind string

const (
	AccountCreated Kind = "account_created"
	BalanceChanged Kind = "balance_changed"
	EntryCreated   Kind = "entry_created"
	EntryReversed  Kind = "entry_reversed"
	BudgetCreated  Kind = "budget_created"
	BudgetUpdated  Kind = "budget_updated"
	// PaymentDueSoon is emitted by the due-date poller when a credit card's
	// remaining days cross a notification threshold.
	PaymentDueSoon Kind = "payment_due_soon"
)

// Event is a precise change notification: it names the account, entry or
// budget that changed rather than signaling a blanket refresh.
type Event struct {
	Kind      Kind      `json:"kind"`
	OwnerID   string    `json:"ownerId"`
	AccountID string    `json:"accountId,omitempty"`
	EntryID   string    `json:"entryId,omitempty"`
	BudgetID  string    `json:"budgetId,omitempty"`
	// DaysUntilDue is only set on PaymentDueSoon events.
	DaysUntilDue int       `json:"daysUntilDue,omitempty"`
	At           time.Time `json:"at"`
}

// Publisher delivers change events to collaborators
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop is a Publisher that drops every event. Used in tests and in tools
// that only read.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event Event) error { return nil }

var _ Publisher = Noop{}
