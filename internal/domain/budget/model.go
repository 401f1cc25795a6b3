// Package budget splits pooled expenses among participants and tracks
// repayment per participant.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/ledger"
)

// SplitType selects how a budget's total is divided
type SplitType string

const (
	// SplitEqual divides the total evenly among the participants plus the
	// user themselves
	SplitEqual SplitType = "equal"
	// SplitFixed assigns each participant an explicit share
	SplitFixed SplitType = "fixed"
)

// Participant is one person's stake in a shared budget. DebtorID references
// the debtor account tracking what this person owes the user.
type Participant struct {
	DebtorID string          `json:"debtorId"`
	Share    decimal.Decimal `json:"share"`
	Paid     decimal.Decimal `json:"paid"`
	IsPaid   bool            `json:"isPaid"`
}

// Settled reports whether the participant has covered their share, within
// the money tolerance.
func (p *Participant) Settled() bool {
	return p.Paid.GreaterThanOrEqual(p.Share.Sub(ledger.Epsilon))
}

// Remaining returns the unpaid portion of the participant's share, never
// negative.
func (p *Participant) Remaining() decimal.Decimal {
	r := p.Share.Sub(p.Paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// SharedBudget is a pooled expense split across participants who each owe a
// share. When CreditorID is set the expense was fronted on credit and that
// creditor account carries the total as debt.
type SharedBudget struct {
	BudgetID     string          `json:"budgetId"`
	OwnerID      string          `json:"ownerId"`
	Description  string          `json:"description,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Split        SplitType       `json:"split"`
	CreditorID   string          `json:"creditorId,omitempty"`
	Participants []Participant   `json:"participants"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Participant finds a participant by debtor account ID
func (b *SharedBudget) Participant(debtorID string) *Participant {
	for i := range b.Participants {
		if b.Participants[i].DebtorID == debtorID {
			return &b.Participants[i]
		}
	}
	return nil
}

// Settled reports whether every participant has covered their share
func (b *SharedBudget) Settled() bool {
	for i := range b.Participants {
		if !b.Participants[i].Settled() {
			return false
		}
	}
	return true
}

// Outstanding returns the sum of all participants' unpaid shares
func (b *SharedBudget) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for i := range b.Participants {
		total = total.Add(b.Participants[i].Remaining())
	}
	return total
}

// CreateSplitRequest carries the inputs for a new shared budget
type CreateSplitRequest struct {
	Description    string          `json:"description,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Split          SplitType       `json:"split"`
	ParticipantIDs []string        `json:"participantIds"`
	// FixedShares maps debtor account ID to share; required for SplitFixed.
	FixedShares map[string]decimal.Decimal `json:"fixedShares,omitempty"`
	// CreditorID is the creditor account that fronted the expense, if any.
	CreditorID string `json:"creditorId,omitempty"`
}

// NewSplit validates the request and computes each participant's share. For
// an equal split the divisor is the participant count plus one: the user
// carries a share of their own. Fixed shares must not exceed the total; the
// user's own share is the remainder.
func NewSplit(req *CreateSplitRequest) ([]Participant, error) {
	if !req.Total.GreaterThan(decimal.Zero) {
		return nil, errors.NewValidationError("budget total must be positive")
	}
	if len(req.ParticipantIDs) == 0 {
		return nil, errors.NewValidationError("at least one participant is required")
	}

	seen := make(map[string]bool, len(req.ParticipantIDs))
	for _, id := range req.ParticipantIDs {
		if id == "" {
			return nil, errors.NewValidationError("participant ID must not be empty")
		}
		if seen[id] {
			return nil, errors.NewValidationError("duplicate participant " + id)
		}
		seen[id] = true
	}

	participants := make([]Participant, 0, len(req.ParticipantIDs))
	switch req.Split {
	case SplitEqual:
		share := req.Total.Div(decimal.NewFromInt(int64(len(req.ParticipantIDs) + 1))).Round(2)
		for _, id := range req.ParticipantIDs {
			participants = append(participants, Participant{DebtorID: id, Share: share, Paid: decimal.Zero})
		}
	case SplitFixed:
		sum := decimal.Zero
		for _, id := range req.ParticipantIDs {
			share, ok := req.FixedShares[id]
			if !ok {
				return nil, errors.NewValidationError("missing fixed share for participant " + id)
			}
			if !share.GreaterThan(decimal.Zero) {
				return nil, errors.NewValidationError("fixed share must be positive")
			}
			sum = sum.Add(share)
			participants = append(participants, Participant{DebtorID: id, Share: share, Paid: decimal.Zero})
		}
		if sum.GreaterThan(req.Total.Add(ledger.Epsilon)) {
			return nil, errors.NewValidationError("fixed shares exceed the budget total")
		}
	default:
		return nil, errors.NewValidationError("unknown split type")
	}

	return participants, nil
}
