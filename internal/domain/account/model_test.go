package account

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountValidate(t *testing.T) {
	t.Run("credit card requires billing terms", func(t *testing.T) {
		a := &Account{
			OwnerID:   "user1",
			AccountID: "acc1",
			Name:      "Visa",
			Kind:      CreditCard,
		}
		assert.Error(t, a.Validate())

		a.CreditCard = &CreditCardTerms{CutOffDay: 15, GraceDays: 20}
		assert.NoError(t, a.Validate())
	})

	t.Run("billing terms rejected on other kinds", func(t *testing.T) {
		a := &Account{
			OwnerID:    "user1",
			Name:       "Wallet",
			Kind:       Cash,
			CreditCard: &CreditCardTerms{CutOffDay: 15},
		}
		assert.Error(t, a.Validate())
	})

	t.Run("cut-off day range", func(t *testing.T) {
		a := &Account{
			OwnerID:    "user1",
			Name:       "Visa",
			Kind:       CreditCard,
			CreditCard: &CreditCardTerms{CutOffDay: 32, GraceDays: 20},
		}
		assert.Error(t, a.Validate())
	})

	t.Run("unknown kind", func(t *testing.T) {
		a := &Account{OwnerID: "user1", Name: "X", Kind: Kind("wallet")}
		assert.Error(t, a.Validate())
	})
}

func TestKindPolicies(t *testing.T) {
	assert.True(t, DebitCard.RequiresAvailableFunds())
	assert.True(t, Cash.RequiresAvailableFunds())
	assert.True(t, Saving.RequiresAvailableFunds())
	assert.False(t, CreditCard.RequiresAvailableFunds())
	assert.False(t, Debtor.RequiresAvailableFunds())

	assert.True(t, CreditCard.DebtLike())
	assert.True(t, Debtor.DebtLike())
	assert.True(t, Creditor.DebtLike())
	assert.False(t, Cash.DebtLike())
}

func TestAvailable(t *testing.T) {
	t.Run("credit card available is remaining credit", func(t *testing.T) {
		a := &Account{
			Kind:           CreditCard,
			CurrentBalance: decimal.NewFromInt(300),
			CreditCard: &CreditCardTerms{
				CreditLimit: decimal.NewFromInt(1000),
				CutOffDay:   15,
			},
		}
		require.True(t, a.Available().Equal(decimal.NewFromInt(700)))
	})

	t.Run("cash available is the balance", func(t *testing.T) {
		a := &Account{Kind: Cash, CurrentBalance: decimal.NewFromInt(200)}
		require.True(t, a.Available().Equal(decimal.NewFromInt(200)))
	})
}
