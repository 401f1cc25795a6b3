package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/expr"
	"github.com/centavoapp/backend/internal/domain/user"
	"github.com/centavoapp/backend/internal/events"
)

// Service is the account registry: the single place accounts are created and
// read. Balance mutations go through the transaction ledger, never directly
// through this service.
type Service struct {
	repo   Repository
	events events.Publisher
	logger *zap.Logger
}

// NewService creates a new account service
func NewService(repo Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

// CreateAccount creates a new account owned by the requesting user. The
// current balance starts equal to the initial balance; from then on it only
// moves through ledger entries.
func (s *Service) CreateAccount(ctx context.Context, owner *user.Context, req *CreateAccountRequest) (*Account, error) {
	initial := req.InitialBalance
	if req.InitialBalanceInput != "" {
		v, err := expr.Evaluate(req.InitialBalanceInput)
		if err != nil {
			return nil, errors.NewValidationError("initial balance is not a valid amount or expression")
		}
		initial = v
	}

	now := time.Now().UTC()
	a := &Account{
		OwnerID:        owner.UserID,
		AccountID:      uuid.New().String(),
		Name:           req.Name,
		Kind:           req.Kind,
		InitialBalance: initial,
		CurrentBalance: initial,
		CreditCard:     req.CreditCard,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateAccount(ctx, owner.UserID, a)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Kind:      events.AccountCreated,
		OwnerID:   owner.UserID,
		AccountID: created.AccountID,
		At:        now,
	})

	return created, nil
}

// GetAccount retrieves one of the owner's accounts by ID
func (s *Service) GetAccount(ctx context.Context, owner *user.Context, accountID string) (*Account, error) {
	return s.repo.GetAccount(ctx, owner.UserID, accountID)
}

// ListAccounts retrieves all of the owner's accounts
func (s *Service) ListAccounts(ctx context.Context, owner *user.Context) ([]*Account, error) {
	return s.repo.ListAccounts(ctx, owner.UserID)
}

// ListAccountsByKind retrieves the owner's accounts of one kind
func (s *Service) ListAccountsByKind(ctx context.Context, owner *user.Context, kind Kind) ([]*Account, error) {
	return s.repo.ListAccountsByKind(ctx, owner.UserID, kind)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish change event",
			zap.String("kind", string(event.Kind)),
			zap.String("accountId", event.AccountID),
			zap.Error(err))
	}
}
