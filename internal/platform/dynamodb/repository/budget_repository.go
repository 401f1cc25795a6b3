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

	"github.com/centavoapp/backend/internal/domain/budget"
	commonErrors "github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/platform/dynamodb/client"
)

// DynamoDBBudgetRepository implements the budget.Repository interface
type DynamoDBBudgetRepository struct {
	client client.Client
	table  string
}

// NewDynamoDBBudgetRepository creates a new DynamoDBBudgetRepository
func NewDynamoDBBudgetRepository(client client.Client, table string) *DynamoDBBudgetRepository {
	return &DynamoDBBudgetRepository{
		client: client,
		table:  table,
	}
}

type participantItem struct {
	DebtorID string `dynamodbav:"debtorId"`
	Share    string `dynamodbav:"share"`
	Paid     string `dynamodbav:"paid"`
	IsPaid   bool   `dynamodbav:"isPaid"`
}

type budgetItem struct {
	PK           string            `dynamodbav:"PK"`
	SK           string            `dynamodbav:"SK"`
	Type         string            `dynamodbav:"Type"`
	BudgetID     string            `dynamodbav:"budgetId"`
	OwnerID      string            `dynamodbav:"ownerId"`
	Description  string            `dynamodbav:"description,omitempty"`
	Total        string            `dynamodbav:"total"`
	Split        string            `dynamodbav:"split"`
	CreditorID   string            `dynamodbav:"creditorId,omitempty"`
	Participants []participantItem `dynamodbav:"participants"`
	CreatedAt    time.Time         `dynamodbav:"createdAt"`
	UpdatedAt    time.Time         `dynamodbav:"updatedAt"`
}

func budgetSK(budgetID string) string {
	return fmt.Sprintf("BUDGET#%s", budgetID)
}

func toBudgetItem(ownerID string, b *budget.SharedBudget) budgetItem {
	item := budgetItem{
		PK:           accountPK(ownerID),
		SK:           budgetSK(b.BudgetID),
		Type:         "Budget",
		BudgetID:     b.BudgetID,
		OwnerID:      ownerID,
		Description:  b.Description,
		Total:        amountString(b.Total),
		Split:        string(b.Split),
		CreditorID:   b.CreditorID,
		Participants: make([]participantItem, 0, len(b.Participants)),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	for _, p := range b.Participants {
		item.Participants = append(item.Participants, participantItem{
			DebtorID: p.DebtorID,
			Share:    amountString(p.Share),
			Paid:     amountString(p.Paid),
			IsPaid:   p.IsPaid,
		})
	}
	return item
}

func fromBudgetItem(item budgetItem) (*budget.SharedBudget, error) {
	total, err := parseAmount(item.Total)
	if err != nil {
		return nil, err
	}
	b := &budget.SharedBudget{
		BudgetID:     item.BudgetID,
		OwnerID:      item.OwnerID,
		Description:  item.Description,
		Total:        total,
		Split:        budget.SplitType(item.Split),
		CreditorID:   item.CreditorID,
		Participants: make([]budget.Participant, 0, len(item.Participants)),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	for _, p := range item.Participants {
		share, err := parseAmount(p.Share)
		if err != nil {
			return nil, err
		}
		paid, err := parseAmount(p.Paid)
		if err != nil {
			return nil, err
		}
		b.Participants = append(b.Participants, budget.Participant{
			DebtorID: p.DebtorID,
			Share:    share,
			Paid:     paid,
			IsPaid:   p.IsPaid,
		})
	}
	return b, nil
}

// CreateBudget persists a new shared budget
func (r *DynamoDBBudgetRepository) CreateBudget(ctx context.Context, ownerID string, b *budget.SharedBudget) (*budget.SharedBudget, error) {
	item, err := attributevalue.MarshalMap(toBudgetItem(ownerID, b))
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal budget", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewConflictError("budget already exists")
		}
		return nil, commonErrors.NewInternalError("failed to create budget", err)
	}

	return b, nil
}

// GetBudget retrieves a budget by ID
func (r *DynamoDBBudgetRepository) GetBudget(ctx context.Context, ownerID, budgetID string) (*budget.SharedBudget, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: budgetSK(budgetID)},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get budget", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("budget not found")
	}

	var item budgetItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal budget", err)
	}
	return fromBudgetItem(item)
}

// UpdateBudget overwrites a budget's participant bookkeeping
func (r *DynamoDBBudgetRepository) UpdateBudget(ctx context.Context, ownerID string, b *budget.SharedBudget) error {
	item, err := attributevalue.MarshalMap(toBudgetItem(ownerID, b))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal budget", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError("budget not found")
		}
		return commonErrors.NewInternalError("failed to update budget", err)
	}

	return nil
}

// DeleteBudget removes a budget record
func (r *DynamoDBBudgetRepository) DeleteBudget(ctx context.Context, ownerID, budgetID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: budgetSK(budgetID)},
		},
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to delete budget", err)
	}
	return nil
}

// ListBudgets retrieves all of the owner's budgets
func (r *DynamoDBBudgetRepository) ListBudgets(ctx context.Context, ownerID string) ([]*budget.SharedBudget, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(accountPK(ownerID))).
		And(expression.Key("SK").BeginsWith("BUDGET#"))
	filterExpr := expression.Name("Type").Equal(expression.Value("Budget"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).WithFilter(filterExpr).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var budgets []*budget.SharedBudget
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
			return nil, commonErrors.NewInternalError("failed to query budgets", err)
		}

		var items []budgetItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal budgets", err)
		}
		for i := range items {
			b, err := fromBudgetItem(items[i])
			if err != nil {
				return nil, err
			}
			budgets = append(budgets, b)
		}

		lastEvaluatedKey = result.LastEvaluatedKey
		if len(lastEvaluatedKey) == 0 {
			break
		}
	}

	return budgets, nil
}

var _ budget.Repository = (*DynamoDBBudgetRepository)(nil)
