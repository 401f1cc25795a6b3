package ledger

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/user"
	"github.com/centavoapp/backend/internal/events"
)

// Service applies and reverses ledger entries while keeping account balances
// consistent with entry history. Each mutation is two independent writes to
// the store (the entry and the balance); when the second write fails the
// first is rolled back so no half-applied state survives a single operation.
type Service struct {
	accounts account.Repository
	entries  Repository
	events   events.Publisher
	logger   *zap.Logger
}

// NewService creates a new ledger service
func NewService(accounts account.Repository, entries Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		entries:  entries,
		events:   publisher,
		logger:   logger,
	}
}

// ApplyEntry validates the entry, computes its signed delta from the owning
// account's sign convention, appends it and moves the balance. It returns
// the updated balance. Entries against accounts whose kind requires
// available funds fail with an insufficient-balance error rather than
// overdrawing.
func (s *Service) ApplyEntry(ctx context.Context, owner *user.Context, e *Entry) (decimal.Decimal, error) {
	if err := e.Validate(); err != nil {
		return decimal.Zero, err
	}

	acct, err := s.accounts.GetAccount(ctx, owner.UserID, e.AccountID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := acct.CurrentBalance.Add(e.SignedAmount(acct.Kind))
	if acct.Kind.RequiresAvailableFunds() && newBalance.LessThan(Epsilon.Neg()) {
		return decimal.Zero, errors.NewInsufficientBalanceError("insufficient balance").
			WithDetail("accountId", acct.AccountID).
			WithDetail("amount", e.Amount.String())
	}

	if e.EntryID == "" {
		e.EntryID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if err := s.entries.PutEntry(ctx, owner.UserID, e); err != nil {
		return decimal.Zero, err
	}

	if err := s.accounts.UpdateBalance(ctx, owner.UserID, e.AccountID, newBalance); err != nil {
		// Roll the entry back so the history never justifies a balance that
		// was never written.
		if rbErr := s.entries.MarkDeleted(ctx, owner.UserID, e.AccountID, e.EntryID); rbErr != nil {
			s.logger.Error("entry rollback failed after balance write failure; manual reconciliation required",
				zap.String("accountId", e.AccountID),
				zap.String("entryId", e.EntryID),
				zap.NamedError("balanceError", err),
				zap.NamedError("rollbackError", rbErr))
			return decimal.Zero, errors.NewPartialFailureError("entry applied but balance update and rollback both failed", err)
		}
		return decimal.Zero, errors.NewInternalError("failed to update account balance", err)
	}

	s.publish(ctx, events.Event{
		Kind:      events.EntryCreated,
		OwnerID:   owner.UserID,
		AccountID: e.AccountID,
		EntryID:   e.EntryID,
		At:        e.CreatedAt,
	})

	return newBalance, nil
}

// ReverseEntry undoes a previously applied entry: it applies the inverse
// balance delta and tombstones the entry. This is the only way entries
// leave an account's history.
func (s *Service) ReverseEntry(ctx context.Context, owner *user.Context, accountID, entryID string) (decimal.Decimal, error) {
	e, err := s.entries.GetEntry(ctx, owner.UserID, accountID, entryID)
	if err != nil {
		return decimal.Zero, err
	}
	if e.Deleted {
		return decimal.Zero, errors.NewConflictError("entry is already reversed")
	}

	acct, err := s.accounts.GetAccount(ctx, owner.UserID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := acct.CurrentBalance.Sub(e.SignedAmount(acct.Kind))
	if err := s.accounts.UpdateBalance(ctx, owner.UserID, accountID, newBalance); err != nil {
		return decimal.Zero, errors.NewInternalError("failed to update account balance", err)
	}

	if err := s.entries.MarkDeleted(ctx, owner.UserID, accountID, entryID); err != nil {
		// Put the balance back; the entry still stands.
		if rbErr := s.accounts.UpdateBalance(ctx, owner.UserID, accountID, acct.CurrentBalance); rbErr != nil {
			s.logger.Error("balance rollback failed after tombstone failure; manual reconciliation required",
				zap.String("accountId", accountID),
				zap.String("entryId", entryID),
				zap.NamedError("tombstoneError", err),
				zap.NamedError("rollbackError", rbErr))
			return decimal.Zero, errors.NewPartialFailureError("balance updated but entry tombstone and rollback both failed", err)
		}
		return decimal.Zero, errors.NewInternalError("failed to tombstone entry", err)
	}

	s.publish(ctx, events.Event{
		Kind:      events.EntryReversed,
		OwnerID:   owner.UserID,
		AccountID: accountID,
		EntryID:   entryID,
		At:        time.Now().UTC(),
	})

	return newBalance, nil
}

// RecomputeBalance re-derives the account balance by folding all non-deleted
// entries from the initial balance. It does not write anything; audit tooling
// and tests use it to check the balance integrity invariant.
func (s *Service) RecomputeBalance(ctx context.Context, owner *user.Context, accountID string) (decimal.Decimal, error) {
	acct, err := s.accounts.GetAccount(ctx, owner.UserID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	all, err := s.entries.ListEntries(ctx, owner.UserID, accountID, Filter{})
	if err != nil {
		return decimal.Zero, err
	}

	balance := acct.InitialBalance
	for _, e := range all {
		balance = balance.Add(e.SignedAmount(acct.Kind))
	}
	return balance, nil
}

// ListEntries returns an account's entry history for the export and UI
// collaborators
func (s *Service) ListEntries(ctx context.Context, owner *user.Context, accountID string, filter Filter) ([]*Entry, error) {
	return s.entries.ListEntries(ctx, owner.UserID, accountID, filter)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish change event",
			zap.String("kind", string(event.Kind)),
			zap.String("accountId", event.AccountID),
			zap.Error(err))
	}
}
