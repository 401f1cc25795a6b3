// Package memory provides in-memory implementations of the domain
// repositories. They back the service tests and offline tooling; the
// production store is DynamoDB.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/centavoapp/backend/internal/domain/account"
	"github.com/centavoapp/backend/internal/domain/budget"
	"github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/ledger"
)

// Store holds accounts, entries and budgets in maps, keyed by owner. It is
// safe for concurrent use and returns copies so callers cannot mutate the
// stored state behind its back.
type Store struct {
	mu       sync.Mutex
	accounts map[string]map[string]*account.Account
	entries  map[string]map[string][]*ledger.Entry
	budgets  map[string]map[string]*budget.SharedBudget
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]map[string]*account.Account),
		entries:  make(map[string]map[string][]*ledger.Entry),
		budgets:  make(map[string]map[string]*budget.SharedBudget),
	}
}

// CreateAccount implements account.Repository
func (s *Store) CreateAccount(ctx context.Context, ownerID string, a *account.Account) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.accounts[ownerID]
	if owned == nil {
		owned = make(map[string]*account.Account)
		s.accounts[ownerID] = owned
	}
	if _, exists := owned[a.AccountID]; exists {
		return nil, errors.NewConflictError("account already exists")
	}

	stored := copyAccount(a)
	owned[a.AccountID] = stored
	return copyAccount(stored), nil
}

// GetAccount implements account.Repository
func (s *Store) GetAccount(ctx context.Context, ownerID, accountID string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[ownerID][accountID]
	if !ok {
		return nil, errors.NewNotFoundError("account not found")
	}
	return copyAccount(a), nil
}

// ListAccounts implements account.Repository
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*account.Account, 0, len(s.accounts[ownerID]))
	for _, a := range s.accounts[ownerID] {
		out = append(out, copyAccount(a))
	}
	return out, nil
}

// ListAccountsByKind implements account.Repository
func (s *Store) ListAccountsByKind(ctx context.Context, ownerID string, kind account.Kind) ([]*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*account.Account
	for _, a := range s.accounts[ownerID] {
		if a.Kind == kind {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

// UpdateBalance implements account.Repository
func (s *Store) UpdateBalance(ctx context.Context, ownerID, accountID string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[ownerID][accountID]
	if !ok {
		return errors.NewNotFoundError("account not found")
	}
	a.CurrentBalance = balance
	return nil
}

// PutEntry implements ledger.Repository
func (s *Store) PutEntry(ctx context.Context, ownerID string, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.entries[ownerID]
	if owned == nil {
		owned = make(map[string][]*ledger.Entry)
		s.entries[ownerID] = owned
	}
	for _, existing := range owned[e.AccountID] {
		if existing.EntryID == e.EntryID {
			return errors.NewConflictError("entry already exists")
		}
	}

	stored := *e
	owned[e.AccountID] = append(owned[e.AccountID], &stored)
	return nil
}

// GetEntry implements ledger.Repository
func (s *Store) GetEntry(ctx context.Context, ownerID, accountID, entryID string) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries[ownerID][accountID] {
		if e.EntryID == entryID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, errors.NewNotFoundError("entry not found")
}

// ListEntries implements ledger.Repository
func (s *Store) ListEntries(ctx context.Context, ownerID, accountID string, filter ledger.Filter) ([]*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.Entry
	for _, e := range s.entries[ownerID][accountID] {
		if filter.Matches(e) {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MarkDeleted implements ledger.Repository
func (s *Store) MarkDeleted(ctx context.Context, ownerID, accountID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries[ownerID][accountID] {
		if e.EntryID == entryID {
			e.Deleted = true
			return nil
		}
	}
	return errors.NewNotFoundError("entry not found")
}

// CreateBudget implements budget.Repository
func (s *Store) CreateBudget(ctx context.Context, ownerID string, b *budget.SharedBudget) (*budget.SharedBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.budgets[ownerID]
	if owned == nil {
		owned = make(map[string]*budget.SharedBudget)
		s.budgets[ownerID] = owned
	}
	if _, exists := owned[b.BudgetID]; exists {
		return nil, errors.NewConflictError("budget already exists")
	}

	stored := copyBudget(b)
	owned[b.BudgetID] = stored
	return copyBudget(stored), nil
}

// GetBudget implements budget.Repository
func (s *Store) GetBudget(ctx context.Context, ownerID, budgetID string) (*budget.SharedBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[ownerID][budgetID]
	if !ok {
		return nil, errors.NewNotFoundError("budget not found")
	}
	return copyBudget(b), nil
}

// UpdateBudget implements budget.Repository
func (s *Store) UpdateBudget(ctx context.Context, ownerID string, b *budget.SharedBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[ownerID][b.BudgetID]; !ok {
		return errors.NewNotFoundError("budget not found")
	}
	s.budgets[ownerID][b.BudgetID] = copyBudget(b)
	return nil
}

// DeleteBudget implements budget.Repository
func (s *Store) DeleteBudget(ctx context.Context, ownerID, budgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[ownerID][budgetID]; !ok {
		return errors.NewNotFoundError("budget not found")
	}
	delete(s.budgets[ownerID], budgetID)
	return nil
}

// ListBudgets implements budget.Repository
func (s *Store) ListBudgets(ctx context.Context, ownerID string) ([]*budget.SharedBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*budget.SharedBudget, 0, len(s.budgets[ownerID]))
	for _, b := range s.budgets[ownerID] {
		out = append(out, copyBudget(b))
	}
	return out, nil
}

func copyAccount(a *account.Account) *account.Account {
	copied := *a
	if a.CreditCard != nil {
		terms := *a.CreditCard
		copied.CreditCard = &terms
	}
	return &copied
}

func copyBudget(b *budget.SharedBudget) *budget.SharedBudget {
	copied := *b
	copied.Participants = make([]budget.Participant, len(b.Participants))
	copy(copied.Participants, b.Participants)
	return &copied
}

// Compile-time interface checks
var (
	_ account.Repository = (*Store)(nil)
	_ ledger.Repository  = (*Store)(nil)
	_ budget.Repository  = (*Store)(nil)
)
