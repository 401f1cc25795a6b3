// Package reconcile adjusts the ledger to match a user-asserted real-world
// balance for one account.
package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/ledger"
	"github.com/centavoapp/backend/internal/domain/saga"
	"github.com/centavoapp/backend/internal/domain/user"
)

// Result reports what a reconciliation did. AdjustmentCreated is false when
// the asserted balance already matched within tolerance; Difference is
// asserted minus ledger balance either way.
type Result struct {
	AdjustmentCreated bool
	Difference        decimal.Decimal
}

// Engine compares asserted balances to ledger balances and emits a single
// adjusting entry per call.
type Engine struct {
	accounts account.Repository
	ledger   *ledger.Service
	logger   *zap.Logger
}

// NewEngine creates a reconciliation engine
func NewEngine(accounts account.Repository, ledgerSvc *ledger.Service, logger *zap.Logger) *Engine {
	return &Engine{
		accounts: accounts,
		ledger:   ledgerSvc,
		logger:   logger,
	}
}

// Reconcile brings the account's ledger balance to the asserted real
// balance. Differences under the money tolerance create no entry; anything
// larger creates exactly one deposit or withdrawal entry of the difference's
// magnitude, in whichever direction moves the balance toward the asserted
// value under the account's sign convention.
func (e *Engine) Reconcile(ctx context.Context, owner *user.Context, accountID string, assertedReal decimal.Decimal) (Result, error) {
	acct, err := e.accounts.GetAccount(ctx, owner.UserID, accountID)
	if err != nil {
		return Result{}, err
	}

	difference := assertedReal.Sub(acct.CurrentBalance)
	if difference.Abs().LessThan(ledger.Epsilon) {
		return Result{AdjustmentCreated: false, Difference: difference}, nil
	}

	kind := ledger.Deposit
	if difference.Sign() != ledger.Direction(acct.Kind, ledger.Deposit) {
		kind = ledger.Withdrawal
	}

	entry := &ledger.Entry{
		AccountID:   accountID,
		Kind:        kind,
		Amount:      difference.Abs(),
		Date:        time.Now().UTC(),
		Description: "balance reconciliation",
	}

	// Same saga shape as the multi-account operations, with a single step.
	err = saga.New("reconcile", e.logger).
		AddStep(saga.Step{
			Name: "apply-adjustment",
			Run: func(ctx context.Context) error {
				_, err := e.ledger.ApplyEntry(ctx, owner, entry)
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := e.ledger.ReverseEntry(ctx, owner, accountID, entry.EntryID)
				return err
			},
		}).
		Execute(ctx)
	if err != nil {
		return Result{}, err
	}

	e.logger.Info("reconciled account",
		zap.String("accountId", accountID),
		zap.String("difference", difference.String()),
		zap.String("entryKind", string(kind)))

	return Result{AdjustmentCreated: true, Difference: difference}, nil
}
