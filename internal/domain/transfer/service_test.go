package transfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/budget"
	"github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/ledger"
	"github.com/centavoapp/backend/internal/domain/transfer"
	"github.com/centavoapp/backend/internal/domain/user"
	"github.com/centavoapp/backend/internal/events"
	"github.com/centavoapp/backend/internal/platform/memory"
)

// faultStore wraps the memory store to inject entry-write and tombstone
// failures, driving the saga's compensation paths.
type faultStore struct {
	*memory.Store
	failPutAfter    int // fail the nth PutEntry call (1-based); 0 disables
	failMarkDeleted bool
	puts            int
}

func (f *faultStore) PutEntry(ctx context.Context, ownerID string, e *ledger.Entry) error {
	f.puts++
	if f.failPutAfter > 0 && f.puts >= f.failPutAfter {
		return errors.NewInternalError("injected write failure", nil)
	}
	return f.Store.PutEntry(ctx, ownerID, e)
}

func (f *faultStore) MarkDeleted(ctx context.Context, ownerID, accountID, entryID string) error {
	if f.failMarkDeleted {
		return errors.NewInternalError("injected tombstone failure", nil)
	}
	return f.Store.MarkDeleted(ctx, ownerID, accountID, entryID)
}

type fixture struct {
	store   *faultStore
	ledger  *ledger.Service
	coord   *transfer.Coordinator
	owner   *user.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &faultStore{Store: memory.NewStore()}
	ledgerSvc := ledger.NewService(store, store, events.Noop{}, zap.NewNop())
	coord := transfer.NewCoordinator(store, ledgerSvc, store, events.Noop{}, zap.NewNop())
	owner, err := user.NewContext("user1")
	require.NoError(t, err)
	return &fixture{store: store, ledger: ledgerSvc, coord: coord, owner: owner}
}

func (f *fixture) seed(t *testing.T, id string, kind account.Kind, balance int64) {
	t.Helper()
	a := &account.Account{
		OwnerID:        f.owner.UserID,
		AccountID:      id,
		Name:           id,
		Kind:           kind,
		InitialBalance: decimal.NewFromInt(balance),
		CurrentBalance: decimal.NewFromInt(balance),
		CreatedAt:      time.Now().UTC(),
	}
	if kind == account.CreditCard {
		a.CreditCard = &account.CreditCardTerms{CutOffDay: 15, GraceDays: 20}
	}
	_, err := f.store.CreateAccount(context.Background(), f.owner.UserID, a)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	a, err := f.store.GetAccount(context.Background(), f.owner.UserID, id)
	require.NoError(t, err)
	return a.CurrentBalance
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("cash to credit card pays down the debt", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 200)
		f.seed(t, "card", account.CreditCard, 300)

		require.NoError(t, f.coord.Transfer(ctx, f.owner, "cash", "card", decimal.NewFromInt(50), "card payment"))
		assert.True(t, f.balance(t, "cash").Equal(decimal.NewFromInt(150)))
		assert.True(t, f.balance(t, "card").Equal(decimal.NewFromInt(250)))
	})

	t.Run("cash to debit card raises its balance", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 200)
		f.seed(t, "debit", account.DebitCard, 100)

		require.NoError(t, f.coord.Transfer(ctx, f.owner, "cash", "debit", decimal.NewFromInt(50), ""))
		assert.True(t, f.balance(t, "cash").Equal(decimal.NewFromInt(150)))
		assert.True(t, f.balance(t, "debit").Equal(decimal.NewFromInt(150)))
	})

	t.Run("both entries exist and reference each other", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 200)
		f.seed(t, "debit", account.DebitCard, 100)

		require.NoError(t, f.coord.Transfer(ctx, f.owner, "cash", "debit", decimal.NewFromInt(50), "move"))

		src, err := f.ledger.ListEntries(ctx, f.owner, "cash", ledger.Filter{})
		require.NoError(t, err)
		dst, err := f.ledger.ListEntries(ctx, f.owner, "debit", ledger.Filter{})
		require.NoError(t, err)
		require.Len(t, src, 1)
		require.Len(t, dst, 1)
		assert.Equal(t, src[0].EntryID, dst[0].LinkedEntryID)
		assert.Equal(t, dst[0].EntryID, src[0].LinkedEntryID)
		assert.True(t, src[0].Amount.Equal(dst[0].Amount))
		assert.Equal(t, ledger.Withdrawal, src[0].Kind)
		assert.Equal(t, ledger.Deposit, dst[0].Kind)
	})

	t.Run("insufficient funds rejects before any write", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 30)
		f.seed(t, "debit", account.DebitCard, 100)

		err := f.coord.Transfer(ctx, f.owner, "cash", "debit", decimal.NewFromInt(50), "")
		assert.ErrorIs(t, err, errors.AppError{Code: "INSUFFICIENT_BALANCE"})
		assert.True(t, f.balance(t, "cash").Equal(decimal.NewFromInt(30)))
		assert.True(t, f.balance(t, "debit").Equal(decimal.NewFromInt(100)))
	})

	t.Run("same account is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 200)
		err := f.coord.Transfer(ctx, f.owner, "cash", "cash", decimal.NewFromInt(50), "")
		assert.ErrorIs(t, err, errors.AppError{Code: "VALIDATION_ERROR"})
	})

	t.Run("credit limit bounds card-funded transfers", func(t *testing.T) {
		f := newFixture(t)
		a := &account.Account{
			OwnerID:        "user1",
			AccountID:      "card",
			Name:           "card",
			Kind:           account.CreditCard,
			InitialBalance: decimal.NewFromInt(900),
			CurrentBalance: decimal.NewFromInt(900),
			CreditCard: &account.CreditCardTerms{
				CreditLimit: decimal.NewFromInt(1000),
				CutOffDay:   15,
			},
			CreatedAt: time.Now().UTC(),
		}
		_, err := f.store.CreateAccount(ctx, "user1", a)
		require.NoError(t, err)
		f.seed(t, "cash", account.Cash, 0)

		err = f.coord.Transfer(ctx, f.owner, "card", "cash", decimal.NewFromInt(200), "cash advance")
		assert.ErrorIs(t, err, errors.AppError{Code: "INSUFFICIENT_BALANCE"})
	})

	t.Run("destination failure compensates the source entry", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 200)
		f.seed(t, "debit", account.DebitCard, 100)
		f.store.failPutAfter = 2 // step A writes, step B fails

		err := f.coord.Transfer(ctx, f.owner, "cash", "debit", decimal.NewFromInt(50), "")
		require.Error(t, err)
		assert.NotErrorIs(t, err, errors.AppError{Code: "PARTIAL_FAILURE"})

		// Source is restored; no live entries remain on either side.
		assert.True(t, f.balance(t, "cash").Equal(decimal.NewFromInt(200)))
		assert.True(t, f.balance(t, "debit").Equal(decimal.NewFromInt(100)))
		src, err := f.ledger.ListEntries(ctx, f.owner, "cash", ledger.Filter{})
		require.NoError(t, err)
		assert.Empty(t, src)
	})

	t.Run("failed compensation surfaces as partial failure", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 200)
		f.seed(t, "debit", account.DebitCard, 100)
		f.store.failPutAfter = 2
		f.store.failMarkDeleted = true // compensation cannot tombstone

		err := f.coord.Transfer(ctx, f.owner, "cash", "debit", decimal.NewFromInt(50), "")
		assert.ErrorIs(t, err, errors.AppError{Code: "PARTIAL_FAILURE"})
	})
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("charges each participant's debtor account", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "ana", account.Debtor, 0)
		f.seed(t, "bob", account.Debtor, 0)

		b, err := f.coord.CreateBudget(ctx, f.owner, &budget.CreateSplitRequest{
			Description:    "dinner",
			Total:          decimal.NewFromInt(300),
			Split:          budget.SplitEqual,
			ParticipantIDs: []string{"ana", "bob"},
		})
		require.NoError(t, err)
		require.Len(t, b.Participants, 2)

		// 300 across two participants plus the user: 100 each.
		assert.True(t, f.balance(t, "ana").Equal(decimal.NewFromInt(100)))
		assert.True(t, f.balance(t, "bob").Equal(decimal.NewFromInt(100)))
	})

	t.Run("creditor-fronted budget charges the creditor with the total", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "ana", account.Debtor, 0)
		f.seed(t, "storecard", account.Creditor, 0)

		_, err := f.coord.CreateBudget(ctx, f.owner, &budget.CreateSplitRequest{
			Description:    "groceries",
			Total:          decimal.NewFromInt(90),
			Split:          budget.SplitEqual,
			ParticipantIDs: []string{"ana"},
			CreditorID:     "storecard",
		})
		require.NoError(t, err)
		assert.True(t, f.balance(t, "storecard").Equal(decimal.NewFromInt(90)))
		assert.True(t, f.balance(t, "ana").Equal(decimal.NewFromInt(45)))
	})

	t.Run("participant must be a debtor account", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "cash", account.Cash, 0)

		_, err := f.coord.CreateBudget(ctx, f.owner, &budget.CreateSplitRequest{
			Total:          decimal.NewFromInt(90),
			Split:          budget.SplitEqual,
			ParticipantIDs: []string{"cash"},
		})
		assert.ErrorIs(t, err, errors.AppError{Code: "VALIDATION_ERROR"})
	})

	t.Run("failure mid-saga removes the budget and all charges", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "ana", account.Debtor, 0)
		f.seed(t, "bob", account.Debtor, 0)
		f.store.failPutAfter = 2 // ana's charge lands, bob's fails

		_, err := f.coord.CreateBudget(ctx, f.owner, &budget.CreateSplitRequest{
			Total:          decimal.NewFromInt(300),
			Split:          budget.SplitEqual,
			ParticipantIDs: []string{"ana", "bob"},
		})
		require.Error(t, err)

		assert.True(t, f.balance(t, "ana").IsZero())
		assert.True(t, f.balance(t, "bob").IsZero())
		budgets, err := f.store.ListBudgets(ctx, f.owner.UserID)
		require.NoError(t, err)
		assert.Empty(t, budgets)
	})
}

func TestRecordPartialPayment(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *budget.SharedBudget) {
		f := newFixture(t)
		f.seed(t, "ana", account.Debtor, 0)
		f.seed(t, "bob", account.Debtor, 0)
		f.seed(t, "cash", account.Cash, 0)
		b, err := f.coord.CreateBudget(ctx, f.owner, &budget.CreateSplitRequest{
			Description:    "trip",
			Total:          decimal.NewFromInt(300),
			Split:          budget.SplitEqual,
			ParticipantIDs: []string{"ana", "bob"},
		})
		require.NoError(t, err)
		return f, b
	}

	t.Run("full share payment settles the participant", func(t *testing.T) {
		f, b := setup(t)

		p, err := f.coord.RecordPartialPayment(ctx, f.owner, b.BudgetID, "ana", decimal.NewFromInt(100), "cash")
		require.NoError(t, err)
		assert.True(t, p.IsPaid)

		// Money moved from the debtor account into cash.
		assert.True(t, f.balance(t, "ana").IsZero())
		assert.True(t, f.balance(t, "cash").Equal(decimal.NewFromInt(100)))

		// Budget stays pending until the other participant pays too.
		stored, err := f.store.GetBudget(ctx, f.owner.UserID, b.BudgetID)
		require.NoError(t, err)
		assert.False(t, stored.Settled())
	})

	t.Run("partial payment keeps the participant unpaid", func(t *testing.T) {
		f, b := setup(t)

		p, err := f.coord.RecordPartialPayment(ctx, f.owner, b.BudgetID, "ana", decimal.NewFromInt(40), "cash")
		require.NoError(t, err)
		assert.False(t, p.IsPaid)
		assert.True(t, p.Remaining().Equal(decimal.NewFromInt(60)))
	})

	t.Run("overpayment is rejected with no state change", func(t *testing.T) {
		f, b := setup(t)

		_, err := f.coord.RecordPartialPayment(ctx, f.owner, b.BudgetID, "ana", decimal.NewFromInt(150), "cash")
		assert.ErrorIs(t, err, errors.AppError{Code: "OVERPAYMENT"})
		assert.True(t, f.balance(t, "ana").Equal(decimal.NewFromInt(100)))
		assert.True(t, f.balance(t, "cash").IsZero())
	})

	t.Run("unknown participant", func(t *testing.T) {
		f, b := setup(t)
		_, err := f.coord.RecordPartialPayment(ctx, f.owner, b.BudgetID, "zoe", decimal.NewFromInt(10), "cash")
		assert.ErrorIs(t, err, errors.AppError{Code: "NOT_FOUND"})
	})

	t.Run("destination failure leaves debtor and budget untouched", func(t *testing.T) {
		f, b := setup(t)
		f.store.failPutAfter = f.store.puts + 2 // debtor payment lands, destination fails

		_, err := f.coord.RecordPartialPayment(ctx, f.owner, b.BudgetID, "ana", decimal.NewFromInt(100), "cash")
		require.Error(t, err)

		assert.True(t, f.balance(t, "ana").Equal(decimal.NewFromInt(100)))
		assert.True(t, f.balance(t, "cash").IsZero())
		stored, err := f.store.GetBudget(ctx, f.owner.UserID, b.BudgetID)
		require.NoError(t, err)
		assert.True(t, stored.Participant("ana").Paid.IsZero())
	})
}

func TestSettleAll(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	f.seed(t, "ana", account.Debtor, 0)
	f.seed(t, "bob", account.Debtor, 0)
	f.seed(t, "cash", account.Cash, 0)
	b, err := f.coord.CreateBudget(ctx, f.owner, &budget.CreateSplitRequest{
		Description:    "rent",
		Total:          decimal.NewFromInt(300),
		Split:          budget.SplitEqual,
		ParticipantIDs: []string{"ana", "bob"},
	})
	require.NoError(t, err)

	// Ana already paid part of her share.
	_, err = f.coord.RecordPartialPayment(ctx, f.owner, b.BudgetID, "ana", decimal.NewFromInt(30), "cash")
	require.NoError(t, err)

	settled, err := f.coord.SettleAll(ctx, f.owner, b.BudgetID, "cash")
	require.NoError(t, err)
	assert.True(t, settled.Settled())
	assert.True(t, f.balance(t, "ana").IsZero())
	assert.True(t, f.balance(t, "bob").IsZero())
	assert.True(t, f.balance(t, "cash").Equal(decimal.NewFromInt(200)))

	entriesBefore, err := f.ledger.ListEntries(ctx, f.owner, "cash", ledger.Filter{})
	require.NoError(t, err)

	// Settling again creates no further entries.
	again, err := f.coord.SettleAll(ctx, f.owner, b.BudgetID, "cash")
	require.NoError(t, err)
	assert.True(t, again.Settled())
	entriesAfter, err := f.ledger.ListEntries(ctx, f.owner, "cash", ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, entriesAfter, len(entriesBefore))
}
