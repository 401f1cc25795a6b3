package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/centavoapp/backend/internal/domain/account"
	commonErrors "github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/platform/dynamodb/client"
)

// DynamoDBAccountRepository implements the account.Repository interface
type DynamoDBAccountRepository struct {
	client client.Client
	table  string
}

// NewDynamoDBAccountRepository creates a new DynamoDBAccountRepository
func NewDynamoDBAccountRepository(client client.Client, table string) *DynamoDBAccountRepository {
	return &DynamoDBAccountRepository{
		client: client,
		table:  table,
	}
}

type creditCardItem struct {
	CreditLimit string `dynamodbav:"creditLimit"`
	CutOffDay   int    `dynamodbav:"cutOffDay"`
	GraceDays   int    `dynamodbav:"graceDays"`
}

type accountItem struct {
	PK             string          `dynamodbav:"PK"`
	SK             string          `dynamodbav:"SK"`
	Type           string          `dynamodbav:"Type"`
	OwnerID        string          `dynamodbav:"ownerId"`
	AccountID      string          `dynamodbav:"accountId"`
	Name           string          `dynamodbav:"name"`
	Kind           string          `dynamodbav:"kind"`
	InitialBalance string          `dynamodbav:"initialBalance"`
	CurrentBalance string          `dynamodbav:"currentBalance"`
	CreditCard     *creditCardItem `dynamodbav:"creditCard,omitempty"`
	CreatedAt      time.Time       `dynamodbav:"createdAt"`
	UpdatedAt      time.Time       `dynamodbav:"updatedAt"`
}

func accountPK(ownerID string) string {
	return fmt.Sprintf("USER#%s", ownerID)
}

func accountSK(accountID string) string {
	return fmt.Sprintf("ACCOUNT#%s", accountID)
}

func toAccountItem(ownerID string, a *account.Account) accountItem {
	item := accountItem{
		PK:             accountPK(ownerID),
		SK:             accountSK(a.AccountID),
		Type:           "Account",
		OwnerID:        ownerID,
		AccountID:      a.AccountID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		InitialBalance: amountString(a.InitialBalance),
		CurrentBalance: amountString(a.CurrentBalance),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.CreditCard != nil {
		item.CreditCard = &creditCardItem{
			CreditLimit: amountString(a.CreditCard.CreditLimit),
			CutOffDay:   a.CreditCard.CutOffDay,
			GraceDays:   a.CreditCard.GraceDays,
		}
	}
	return item
}

func fromAccountItem(item accountItem) (*account.Account, error) {
	initial, err := parseAmount(item.InitialBalance)
	if err != nil {
		return nil, err
	}
	current, err := parseAmount(item.CurrentBalance)
	if err != nil {
		return nil, err
	}
	a := &account.Account{
		OwnerID:        item.OwnerID,
		AccountID:      item.AccountID,
		Name:           item.Name,
		Kind:           account.Kind(item.Kind),
		InitialBalance: initial,
		CurrentBalance: current,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if item.CreditCard != nil {
		limit, err := parseAmount(item.CreditCard.CreditLimit)
		if err != nil {
			return nil, err
		}
		a.CreditCard = &account.CreditCardTerms{
			CreditLimit: limit,
			CutOffDay:   item.CreditCard.CutOffDay,
			GraceDays:   item.CreditCard.GraceDays,
		}
	}
	return a, nil
}

// CreateAccount creates a new account
func (r *DynamoDBAccountRepository) CreateAccount(ctx context.Context, ownerID string, a *account.Account) (*account.Account, error) {
	item, err := attributevalue.MarshalMap(toAccountItem(ownerID, a))
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal account", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewConflictError("account already exists")
		}
		return nil, commonErrors.NewInternalError("failed to create account", err)
	}

	return a, nil
}

// GetAccount retrieves an account by ID
func (r *DynamoDBAccountRepository) GetAccount(ctx context.Context, ownerID, accountID string) (*account.Account, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: accountSK(accountID)},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get account", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("account not found")
	}

	var item accountItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal account", err)
	}
	return fromAccountItem(item)
}

// ListAccounts retrieves all of the owner's accounts
func (r *DynamoDBAccountRepository) ListAccounts(ctx context.Context, ownerID string) ([]*account.Account, error) {
	return r.queryAccounts(ctx, ownerID, "")
}

// ListAccountsByKind retrieves the owner's accounts of one kind
func (r *DynamoDBAccountRepository) ListAccountsByKind(ctx context.Context, ownerID string, kind account.Kind) ([]*account.Account, error) {
	return r.queryAccounts(ctx, ownerID, kind)
}

func (r *DynamoDBAccountRepository) queryAccounts(ctx context.Context, ownerID string, kind account.Kind) ([]*account.Account, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(accountPK(ownerID))).
		And(expression.Key("SK").BeginsWith("ACCOUNT#"))

	// Entry items share the ACCOUNT# key prefix, so the type filter is
	// required to keep them out of the result.
	filterExpr := expression.Name("Type").Equal(expression.Value("Account"))
	if kind != "" {
		filterExpr = filterExpr.And(expression.Name("kind").Equal(expression.Value(string(kind))))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).WithFilter(filterExpr).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var accounts []*account.Account
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(100),
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to query accounts", err)
		}

		var items []accountItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal accounts", err)
		}
		for i := range items {
			a, err := fromAccountItem(items[i])
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, a)
		}

		lastEvaluatedKey = result.LastEvaluatedKey
		if len(lastEvaluatedKey) == 0 {
			break
		}
	}

	return accounts, nil
}

// UpdateBalance overwrites the account's current balance. Last write wins.
func (r *DynamoDBAccountRepository) UpdateBalance(ctx context.Context, ownerID, accountID string, balance decimal.Decimal) error {
	update := expression.Set(expression.Name("currentBalance"), expression.Value(amountString(balance))).
		Set(expression.Name("updatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))
	condition := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: accountSK(accountID)},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError("account not found")
		}
		return commonErrors.NewInternalError("failed to update balance", err)
	}

	return nil
}

var _ account.Repository = (*DynamoDBAccountRepository)(nil)
