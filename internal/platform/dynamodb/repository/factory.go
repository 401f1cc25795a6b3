package repository

import (
	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/budget"
	"github.com/centavoapp/backend/internal/domain/ledger"
	"github.com/centavoapp/backend/internal/platform/dynamodb/client"
)

// Factory creates repository instances
type Factory struct {
	client    client.Client
	tableName string
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string) *Factory {
	return &Factory{
		client:    client,
		tableName: tableName,
	}
}

// AccountRepository returns an implementation of the account.Repository interface
func (f *Factory) AccountRepository() account.Repository {
	return NewDynamoDBAccountRepository(f.client, f.tableName)
}

// EntryRepository returns an implementation of the ledger.Repository interface
func (f *Factory) EntryRepository() ledger.Repository {
	return NewDynamoDBEntryRepository(f.client, f.tableName)
}

// BudgetRepository returns an implementation of the budget.Repository interface
func (f *Factory) BudgetRepository() budget.Repository {
	return NewDynamoDBBudgetRepository(f.client, f.tableName)
}
