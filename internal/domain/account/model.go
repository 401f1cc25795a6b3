package account

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/centavoapp/backend/internal/common/utils"
	"github.com/centavoapp/backend/internal/domain/errors"
)

// Kind represents the type of an account
type Kind string

const (
	// Cash represents physical money held by the user
	Cash Kind = "cash"
	// DebitCard represents a bank debit card
	DebitCard Kind = "debit_card"
	// CreditCard represents a revolving-credit card whose balance is debt
	CreditCard Kind = "credit_card"
	// Debtor represents a person who owes the user money
	Debtor Kind = "debtor"
	// Creditor represents a person or entity the user owes money to
	Creditor Kind = "creditor"
	// Saving represents a savings account
	Saving Kind = "saving"
)

// Valid reports whether k is a known account kind
func (k Kind) Valid() bool {
	switch k {
	case Cash, DebitCard, CreditCard, Debtor, Creditor, Saving:
		return true
	}
	return false
}

// DebtLike reports whether the account's balance represents money owed
// rather than money held. Charges raise a debt-like balance and payments
// lower it, the inverse of asset-like accounts.
func (k Kind) DebtLike() bool {
	switch k {
	case CreditCard, Debtor, Creditor:
		return true
	}
	return false
}

// RequiresAvailableFunds reports whether withdrawals and charges against the
// account must be covered by the current balance. Credit cards are allowed to
// go negative, meaning credit in the user's favor.
func (k Kind) RequiresAvailableFunds() bool {
	switch k {
	case Cash, DebitCard, Saving:
		return true
	}
	return false
}

// CreditCardTerms carries the fields that only exist on credit card
// accounts. Keeping them in their own struct, present exactly when
// Kind == CreditCard, makes invalid field combinations unrepresentable
// at construction time.
type CreditCardTerms struct {
	// CreditLimit is the card's limit; zero means no limit is tracked.
	CreditLimit decimal.Decimal
	// CutOffDay is the day of month the billing cycle closes (1..31).
	CutOffDay int
	// GraceDays is the number of days from cut-off to the payment due date.
	GraceDays int
}

func (t CreditCardTerms) validate() error {
	if err := utils.ValidateDayOfMonth(t.CutOffDay); err != nil {
		return err
	}
	if t.GraceDays < 0 {
		return errors.NewValidationError("grace days must not be negative")
	}
	if t.CreditLimit.IsNegative() {
		return errors.NewValidationError("credit limit must not be negative")
	}
	return nil
}

// Account represents one of the user's money sources or obligations
type Account struct {
	OwnerID   string `json:"ownerId"`
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`

	// InitialBalance is the balance asserted when the account was created;
	// CurrentBalance must always equal InitialBalance plus the signed sum of
	// the account's non-deleted ledger entries.
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`

	// CreditCard is present iff Kind == CreditCard.
	CreditCard *CreditCardTerms `json:"creditCard,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the kind/terms pairing and field ranges
func (a *Account) Validate() error {
	if err := utils.ValidateRequiredString(a.OwnerID, "owner ID"); err != nil {
		return err
	}
	if err := utils.ValidateRequiredString(a.Name, "account name"); err != nil {
		return err
	}
	if !a.Kind.Valid() {
		return errors.NewValidationError("unknown account kind")
	}
	if a.Kind == CreditCard {
		if a.CreditCard == nil {
			return errors.NewValidationError("credit card accounts require billing terms")
		}
		return a.CreditCard.validate()
	}
	if a.CreditCard != nil {
		return errors.NewValidationError("billing terms are only valid on credit card accounts")
	}
	return nil
}

// Available returns the funds available for withdrawals and charges. For
// credit cards this is the remaining credit under the limit; for everything
// else it is the current balance.
func (a *Account) Available() decimal.Decimal {
	if a.Kind == CreditCard && a.CreditCard != nil && !a.CreditCard.CreditLimit.IsZero() {
		return a.CreditCard.CreditLimit.Sub(a.CurrentBalance)
	}
	return a.CurrentBalance
}

// CreateAccountRequest represents the request to create a new account
type CreateAccountRequest struct {
	Name           string          `json:"name"`
	Kind           Kind            `json:"kind"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	// InitialBalanceInput is the raw user-typed amount, which may be a small
	// arithmetic expression ("1200+350.50"). When set it is evaluated and
	// takes precedence over InitialBalance.
	InitialBalanceInput string           `json:"initialBalanceInput,omitempty"`
	CreditCard          *CreditCardTerms `json:"creditCard,omitempty"`
}
