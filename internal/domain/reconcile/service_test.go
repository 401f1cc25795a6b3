package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/ledger"
	"github.com/centavoapp/backend/internal/domain/reconcile"
	"github.com/centavoapp/backend/internal/domain/user"
	"github.com/centavoapp/backend/internal/events"
	"github.com/centavoapp/backend/internal/platform/memory"
)

func fixture(t *testing.T, kind account.Kind, balance float64) (*memory.Store, *reconcile.Engine, *ledger.Service, *user.Context) {
	t.Helper()
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store, store, events.Noop{}, zap.NewNop())
	engine := reconcile.NewEngine(store, ledgerSvc, zap.NewNop())
	owner, err := user.NewContext("user1")
	require.NoError(t, err)

	a := &account.Account{
		OwnerID:        owner.UserID,
		AccountID:      "acct",
		Name:           "acct",
		Kind:           kind,
		InitialBalance: decimal.NewFromFloat(balance),
		CurrentBalance: decimal.NewFromFloat(balance),
		CreatedAt:      time.Now().UTC(),
	}
	if kind == account.CreditCard {
		a.CreditCard = &account.CreditCardTerms{CutOffDay: 15, GraceDays: 20}
	}
	_, err = store.CreateAccount(context.Background(), owner.UserID, a)
	require.NoError(t, err)
	return store, engine, ledgerSvc, owner
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("asserted above ledger creates one deposit adjustment", func(t *testing.T) {
		store, engine, ledgerSvc, owner := fixture(t, account.Cash, 80)

		result, err := engine.Reconcile(ctx, owner, "acct", decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.True(t, result.AdjustmentCreated)
		assert.True(t, result.Difference.Equal(decimal.NewFromInt(20)))

		entries, err := ledgerSvc.ListEntries(ctx, owner, "acct", ledger.Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.Deposit, entries[0].Kind)
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(20)))

		acct, err := store.GetAccount(ctx, owner.UserID, "acct")
		require.NoError(t, err)
		assert.True(t, acct.CurrentBalance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("asserted below ledger creates one withdrawal adjustment", func(t *testing.T) {
		store, engine, _, owner := fixture(t, account.Cash, 80)

		result, err := engine.Reconcile(ctx, owner, "acct", decimal.NewFromInt(50))
		require.NoError(t, err)
		assert.True(t, result.AdjustmentCreated)

		acct, err := store.GetAccount(ctx, owner.UserID, "acct")
		require.NoError(t, err)
		assert.True(t, acct.CurrentBalance.Equal(decimal.NewFromInt(50)))
	})

	t.Run("difference within tolerance creates nothing", func(t *testing.T) {
		_, engine, ledgerSvc, owner := fixture(t, account.Cash, 80)

		result, err := engine.Reconcile(ctx, owner, "acct", decimal.NewFromFloat(80.005))
		require.NoError(t, err)
		assert.False(t, result.AdjustmentCreated)
		assert.True(t, result.Difference.Equal(decimal.NewFromFloat(0.005)))

		entries, err := ledgerSvc.ListEntries(ctx, owner, "acct", ledger.Filter{})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("debt accounts adjust in the debt direction", func(t *testing.T) {
		// The card actually carries 350 of debt but the ledger says 300:
		// the adjustment must raise the balance, which for a debt-like
		// account is a withdrawal-direction entry.
		store, engine, ledgerSvc, owner := fixture(t, account.CreditCard, 300)

		result, err := engine.Reconcile(ctx, owner, "acct", decimal.NewFromInt(350))
		require.NoError(t, err)
		assert.True(t, result.AdjustmentCreated)

		entries, err := ledgerSvc.ListEntries(ctx, owner, "acct", ledger.Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.Withdrawal, entries[0].Kind)

		acct, err := store.GetAccount(ctx, owner.UserID, "acct")
		require.NoError(t, err)
		assert.True(t, acct.CurrentBalance.Equal(decimal.NewFromInt(350)))
	})

	t.Run("repeated reconciliation is a no-op once matched", func(t *testing.T) {
		_, engine, ledgerSvc, owner := fixture(t, account.Cash, 80)

		_, err := engine.Reconcile(ctx, owner, "acct", decimal.NewFromInt(100))
		require.NoError(t, err)
		result, err := engine.Reconcile(ctx, owner, "acct", decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.False(t, result.AdjustmentCreated)

		entries, err := ledgerSvc.ListEntries(ctx, owner, "acct", ledger.Filter{})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
