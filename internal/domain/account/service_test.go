package account_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/user"
	"github.com/centavoapp/backend/internal/events"
	"github.com/centavoapp/backend/internal/platform/memory"
)

func newService(t *testing.T) (*account.Service, *user.Context) {
	t.Helper()
	svc := account.NewService(memory.NewStore(), events.Noop{}, zap.NewNop())
	owner, err := user.NewContext("user1")
	require.NoError(t, err)
	return svc, owner
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("current balance starts at the initial balance", func(t *testing.T) {
		svc, owner := newService(t)

		a, err := svc.CreateAccount(ctx, owner, &account.CreateAccountRequest{
			Name:           "wallet",
			Kind:           account.Cash,
			InitialBalance: decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, a.AccountID)
		assert.True(t, a.CurrentBalance.Equal(decimal.NewFromInt(200)))
		assert.True(t, a.InitialBalance.Equal(decimal.NewFromInt(200)))
	})

	t.Run("expression input is evaluated", func(t *testing.T) {
		svc, owner := newService(t)

		a, err := svc.CreateAccount(ctx, owner, &account.CreateAccountRequest{
			Name:                "wallet",
			Kind:                account.Cash,
			InitialBalanceInput: "$1,200 + 350.50",
		})
		require.NoError(t, err)
		assert.True(t, a.InitialBalance.Equal(decimal.RequireFromString("1550.50")))
	})

	t.Run("malformed expression input is rejected", func(t *testing.T) {
		svc, owner := newService(t)

		_, err := svc.CreateAccount(ctx, owner, &account.CreateAccountRequest{
			Name:                "wallet",
			Kind:                account.Cash,
			InitialBalanceInput: "100++5",
		})
		assert.ErrorIs(t, err, errors.AppError{Code: "VALIDATION_ERROR"})
	})

	t.Run("credit card without terms is rejected", func(t *testing.T) {
		svc, owner := newService(t)

		_, err := svc.CreateAccount(ctx, owner, &account.CreateAccountRequest{
			Name: "visa",
			Kind: account.CreditCard,
		})
		assert.ErrorIs(t, err, errors.AppError{Code: "VALIDATION_ERROR"})
	})
}

func TestListAccountsByKind(t *testing.T) {
	ctx := context.Background()
	svc, owner := newService(t)

	for _, req := range []*account.CreateAccountRequest{
		{Name: "wallet", Kind: account.Cash},
		{Name: "visa", Kind: account.CreditCard, CreditCard: &account.CreditCardTerms{CutOffDay: 15, GraceDays: 20}},
		{Name: "amex", Kind: account.CreditCard, CreditCard: &account.CreditCardTerms{CutOffDay: 28, GraceDays: 15}},
	} {
		_, err := svc.CreateAccount(ctx, owner, req)
		require.NoError(t, err)
	}

	cards, err := svc.ListAccountsByKind(ctx, owner, account.CreditCard)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	all, err := svc.ListAccounts(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
