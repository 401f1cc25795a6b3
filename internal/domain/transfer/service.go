// Package transfer orchestrates every operation that touches two or more
// accounts. The store offers no multi-item transaction, so each operation is
// a saga: ordered sub-steps with compensation for the already-applied ones
// when a later step fails.
package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/budget"
	"github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/ledger"
	"github.com/centavoapp/backend/internal/domain/saga"
	"github.com/centavoapp/backend/internal/domain/user"
	"github.com/centavoapp/backend/internal/events"
)

// Coordinator validates multi-account operations against the registry and
// executes them as sagas through the ledger.
type Coordinator struct {
	accounts account.Repository
	ledger   *ledger.Service
	budgets  budget.Repository
	events   events.Publisher
	logger   *zap.Logger
}

// NewCoordinator creates a transfer coordinator
func NewCoordinator(accounts account.Repository, ledgerSvc *ledger.Service, budgets budget.Repository, publisher events.Publisher, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		accounts: accounts,
		ledger:   ledgerSvc,
		budgets:  budgets,
		events:   publisher,
		logger:   logger,
	}
}

// Transfer moves amount from the source account to the destination account
// as two linked entries: both exist afterwards or neither does. The
// insufficient-funds check runs against the pre-transfer source balance.
func (c *Coordinator) Transfer(ctx context.Context, owner *user.Context, sourceID, destinationID string, amount decimal.Decimal, description string) error {
	if !amount.GreaterThan(decimal.Zero) {
		return errors.NewValidationError("transfer amount must be positive")
	}
	if sourceID == destinationID {
		return errors.NewValidationError("source and destination must differ")
	}

	source, err := c.accounts.GetAccount(ctx, owner.UserID, sourceID)
	if err != nil {
		return err
	}
	destination, err := c.accounts.GetAccount(ctx, owner.UserID, destinationID)
	if err != nil {
		return err
	}

	if source.Kind.RequiresAvailableFunds() && source.CurrentBalance.LessThan(amount) {
		return errors.NewInsufficientBalanceError("insufficient balance in source account").
			WithDetail("accountId", sourceID)
	}
	if source.Kind == account.CreditCard && !source.CreditCard.CreditLimit.IsZero() && source.Available().LessThan(amount) {
		return errors.NewInsufficientBalanceError("transfer exceeds the card's credit limit").
			WithDetail("accountId", sourceID)
	}

	now := time.Now().UTC()
	sourceEntryID := ulid.Make().String()
	destEntryID := ulid.Make().String()

	s := saga.New("transfer", c.logger)
	s.AddStep(saga.Step{
		Name: "debit-source",
		Run: func(ctx context.Context) error {
			_, err := c.ledger.ApplyEntry(ctx, owner, &ledger.Entry{
				EntryID:       sourceEntryID,
				AccountID:     sourceID,
				Kind:          ledger.DebitKindFor(source.Kind),
				Amount:        amount,
				Date:          now,
				Description:   description,
				LinkedEntryID: destEntryID,
			})
			return err
		},
		Compensate: func(ctx context.Context) error {
			_, err := c.ledger.ReverseEntry(ctx, owner, sourceID, sourceEntryID)
			return err
		},
	})
	s.AddStep(saga.Step{
		Name: "credit-destination",
		Run: func(ctx context.Context) error {
			_, err := c.ledger.ApplyEntry(ctx, owner, &ledger.Entry{
				EntryID:       destEntryID,
				AccountID:     destinationID,
				Kind:          ledger.CreditKindFor(destination.Kind),
				Amount:        amount,
				Date:          now,
				Description:   description,
				LinkedEntryID: sourceEntryID,
			})
			return err
		},
		Compensate: func(ctx context.Context) error {
			_, err := c.ledger.ReverseEntry(ctx, owner, destinationID, destEntryID)
			return err
		},
	})

	return s.Execute(ctx)
}

// CreateBudget creates a shared budget and charges the accounts behind it:
// each participant's debtor account is charged their share, and when the
// expense was fronted on credit the creditor account is charged the total.
// The budget record and every charge land together or not at all.
func (c *Coordinator) CreateBudget(ctx context.Context, owner *user.Context, req *budget.CreateSplitRequest) (*budget.SharedBudget, error) {
	participants, err := budget.NewSplit(req)
	if err != nil {
		return nil, err
	}

	// Every referenced account must exist and carry the right kind before
	// any write happens.
	for _, p := range participants {
		acct, err := c.accounts.GetAccount(ctx, owner.UserID, p.DebtorID)
		if err != nil {
			return nil, err
		}
		if acct.Kind != account.Debtor {
			return nil, errors.NewValidationError("participant account " + p.DebtorID + " is not a debtor account")
		}
	}
	if req.CreditorID != "" {
		acct, err := c.accounts.GetAccount(ctx, owner.UserID, req.CreditorID)
		if err != nil {
			return nil, err
		}
		if acct.Kind != account.Creditor && acct.Kind != account.CreditCard {
			return nil, errors.NewValidationError("creditor account must be a creditor or credit card account")
		}
	}

	now := time.Now().UTC()
	b := &budget.SharedBudget{
		BudgetID:     uuid.New().String(),
		OwnerID:      owner.UserID,
		Description:  req.Description,
		Total:        req.Total,
		Split:        req.Split,
		CreditorID:   req.CreditorID,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s := saga.New("create-budget", c.logger)
	s.AddStep(saga.Step{
		Name: "create-budget-record",
		Run: func(ctx context.Context) error {
			_, err := c.budgets.CreateBudget(ctx, owner.UserID, b)
			return err
		},
		Compensate: func(ctx context.Context) error {
			return c.budgets.DeleteBudget(ctx, owner.UserID, b.BudgetID)
		},
	})
	for i := range participants {
		p := participants[i]
		entryID := ulid.Make().String()
		s.AddStep(saga.Step{
			Name: "charge-debtor-" + p.DebtorID,
			Run: func(ctx context.Context) error {
				_, err := c.ledger.ApplyEntry(ctx, owner, &ledger.Entry{
					EntryID:     entryID,
					AccountID:   p.DebtorID,
					Kind:        ledger.Charge,
					Amount:      p.Share,
					Date:        now,
					Description: "share of " + b.Description,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := c.ledger.ReverseEntry(ctx, owner, p.DebtorID, entryID)
				return err
			},
		})
	}
	if req.CreditorID != "" {
		entryID := ulid.Make().String()
		s.AddStep(saga.Step{
			Name: "charge-creditor",
			Run: func(ctx context.Context) error {
				_, err := c.ledger.ApplyEntry(ctx, owner, &ledger.Entry{
					EntryID:     entryID,
					AccountID:   req.CreditorID,
					Kind:        ledger.Charge,
					Amount:      req.Total,
					Date:        now,
					Description: b.Description,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := c.ledger.ReverseEntry(ctx, owner, req.CreditorID, entryID)
				return err
			},
		})
	}

	if err := s.Execute(ctx); err != nil {
		return nil, err
	}

	c.publish(ctx, events.Event{
		Kind:     events.BudgetCreated,
		OwnerID:  owner.UserID,
		BudgetID: b.BudgetID,
		At:       now,
	})
	return b, nil
}

// RecordPartialPayment settles part of a participant's share: the debtor
// account is paid down, the money lands in the destination account, and the
// budget's bookkeeping moves - all as one saga. Payments above the remaining
// share are rejected.
func (c *Coordinator) RecordPartialPayment(ctx context.Context, owner *user.Context, budgetID, debtorID string, amount decimal.Decimal, destinationAccountID string) (*budget.Participant, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, errors.NewValidationError("payment amount must be positive")
	}

	b, err := c.budgets.GetBudget(ctx, owner.UserID, budgetID)
	if err != nil {
		return nil, err
	}
	p := b.Participant(debtorID)
	if p == nil {
		return nil, errors.NewNotFoundError("participant not found in budget")
	}
	if amount.GreaterThan(p.Remaining().Add(ledger.Epsilon)) {
		return nil, errors.NewOverpaymentError("payment exceeds the participant's remaining share").
			WithDetail("remaining", p.Remaining().String())
	}

	destination, err := c.accounts.GetAccount(ctx, owner.UserID, destinationAccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	debtorEntryID := ulid.Make().String()
	destEntryID := ulid.Make().String()
	previous := *p

	s := saga.New("budget-payment", c.logger)
	s.AddStep(saga.Step{
		Name: "pay-down-debtor",
		Run: func(ctx context.Context) error {
			_, err := c.ledger.ApplyEntry(ctx, owner, &ledger.Entry{
				EntryID:       debtorEntryID,
				AccountID:     debtorID,
				Kind:          ledger.Payment,
				Amount:        amount,
				Date:          now,
				Description:   "repayment of " + b.Description,
				LinkedEntryID: destEntryID,
			})
			return err
		},
		Compensate: func(ctx context.Context) error {
			_, err := c.ledger.ReverseEntry(ctx, owner, debtorID, debtorEntryID)
			return err
		},
	})
	s.AddStep(saga.Step{
		Name: "credit-destination",
		Run: func(ctx context.Context) error {
			_, err := c.ledger.ApplyEntry(ctx, owner, &ledger.Entry{
				EntryID:       destEntryID,
				AccountID:     destinationAccountID,
				Kind:          ledger.CreditKindFor(destination.Kind),
				Amount:        amount,
				Date:          now,
				Description:   "repayment of " + b.Description,
				LinkedEntryID: debtorEntryID,
			})
			return err
		},
		Compensate: func(ctx context.Context) error {
			_, err := c.ledger.ReverseEntry(ctx, owner, destinationAccountID, destEntryID)
			return err
		},
	})
	s.AddStep(saga.Step{
		Name: "update-budget",
		Run: func(ctx context.Context) error {
			p.Paid = p.Paid.Add(amount)
			p.IsPaid = p.Settled()
			b.UpdatedAt = now
			return c.budgets.UpdateBudget(ctx, owner.UserID, b)
		},
		Compensate: func(ctx context.Context) error {
			*p = previous
			return c.budgets.UpdateBudget(ctx, owner.UserID, b)
		},
	})

	if err := s.Execute(ctx); err != nil {
		return nil, err
	}

	c.publish(ctx, events.Event{
		Kind:     events.BudgetUpdated,
		OwnerID:  owner.UserID,
		BudgetID: budgetID,
		At:       now,
	})
	updated := *p
	return &updated, nil
}

// SettleAll pays the exact remaining amount for every unpaid participant,
// one payment each, landing in the destination account. It is idempotent:
// once everyone is settled another call creates no entries.
func (c *Coordinator) SettleAll(ctx context.Context, owner *user.Context, budgetID, destinationAccountID string) (*budget.SharedBudget, error) {
	b, err := c.budgets.GetBudget(ctx, owner.UserID, budgetID)
	if err != nil {
		return nil, err
	}

	for i := range b.Participants {
		p := &b.Participants[i]
		if p.Settled() {
			continue
		}
		if _, err := c.RecordPartialPayment(ctx, owner, budgetID, p.DebtorID, p.Remaining(), destinationAccountID); err != nil {
			return nil, err
		}
	}

	return c.budgets.GetBudget(ctx, owner.UserID, budgetID)
}

func (c *Coordinator) publish(ctx context.Context, event events.Event) {
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish change event",
			zap.String("kind", string(event.Kind)),
			zap.String("budgetId", event.BudgetID),
			zap.Error(err))
	}
}
