// Package ledger keeps every account's stated balance consistent with its
// append-only entry history: at all times the current balance equals the
// initial balance plus the signed sum of non-deleted entries.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/errors"
)

// Epsilon is the tolerance for money comparisons, 0.01 currency units.
var Epsilon = decimal.NewFromFloat(0.01)

// EntryKind represents what a ledger entry records. Amounts are magnitudes;
// the direction of the balance change comes from the kind combined with the
// owning account's sign convention.
type EntryKind string

const (
	// Charge records spending against a debt-like account
	Charge EntryKind = "charge"
	// Payment records money paid toward a debt-like account
	Payment EntryKind = "payment"
	// Deposit records money entering an asset-like account
	Deposit EntryKind = "deposit"
	// Withdrawal records money leaving an asset-like account
	Withdrawal EntryKind = "withdrawal"
	// Adjustment records a manual correction; it moves the balance the way
	// a deposit does
	Adjustment EntryKind = "adjustment"
)

// Valid reports whether k is a known entry kind
func (k EntryKind) Valid() bool {
	switch k {
	case Charge, Payment, Deposit, Withdrawal, Adjustment:
		return true
	}
	return false
}

// Entry is one immutable row in an account's history. Entries are never
// edited; undo marks them deleted after the balance delta they caused has
// been reversed.
type Entry struct {
	EntryID     string    `json:"entryId"`
	AccountID   string    `json:"accountId"`
	Kind        EntryKind `json:"kind"`
	// Amount is a magnitude and must be positive.
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	// LinkedEntryID is set only on the two halves of a transfer, each
	// referencing the other.
	LinkedEntryID string    `json:"linkedEntryId,omitempty"`
	Deleted       bool      `json:"deleted,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks amount positivity, kind, and date validity
func (e *Entry) Validate() error {
	if !e.Kind.Valid() {
		return errors.NewValidationError("unknown entry kind")
	}
	if !e.Amount.GreaterThan(decimal.Zero) {
		return errors.NewValidationError("entry amount must be positive")
	}
	if e.Date.IsZero() {
		return errors.NewValidationError("entry date is required")
	}
	return nil
}

// Direction returns the sign (+1 or -1) an entry kind applies to an account
// of the given kind:
//
//	account kind            charge/withdrawal   payment/deposit/adjustment
//	cash, debit, saving     -                   +
//	credit, debtor, creditor +                  -
func Direction(accountKind account.Kind, entryKind EntryKind) int {
	outgoing := entryKind == Charge || entryKind == Withdrawal
	if accountKind.DebtLike() {
		if outgoing {
			return 1
		}
		return -1
	}
	if outgoing {
		return -1
	}
	return 1
}

// SignedAmount returns the balance delta the entry applies to an account of
// the given kind. Deleted entries contribute nothing.
func (e *Entry) SignedAmount(accountKind account.Kind) decimal.Decimal {
	if e.Deleted {
		return decimal.Zero
	}
	if Direction(accountKind, e.Kind) < 0 {
		return e.Amount.Neg()
	}
	return e.Amount
}

// DebitKindFor returns the entry kind that takes money out of the given
// account: a charge for debt-like accounts, a withdrawal otherwise.
func DebitKindFor(kind account.Kind) EntryKind {
	if kind.DebtLike() {
		return Charge
	}
	return Withdrawal
}

// CreditKindFor returns the entry kind that puts money into the given
// account: a payment for debt-like accounts (it reduces what is owed), a
// deposit otherwise.
func CreditKindFor(kind account.Kind) EntryKind {
	if kind.DebtLike() {
		return Payment
	}
	return Deposit
}
