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

	commonErrors "github.com/centavoapp/backend/internal/domain/errors"
	"github.com/centavoapp/backend/internal/domain/ledger"
	"github.com/centavoapp/backend/internal/platform/dynamodb/client"
)

// DynamoDBEntryRepository implements the ledger.Repository interface
type DynamoDBEntryRepository struct {
	client client.Client
	table  string
}

// NewDynamoDBEntryRepository creates a new DynamoDBEntryRepository
func NewDynamoDBEntryRepository(client client.Client, table string) *DynamoDBEntryRepository {
	return &DynamoDBEntryRepository{
		client: client,
		table:  table,
	}
}

type entryItem struct {
	PK            string    `dynamodbav:"PK"`
	SK            string    `dynamodbav:"SK"`
	Type          string    `dynamodbav:"Type"`
	EntryID       string    `dynamodbav:"entryId"`
	AccountID     string    `dynamodbav:"accountId"`
	Kind          string    `dynamodbav:"kind"`
	Amount        string    `dynamodbav:"amount"`
	Date          time.Time `dynamodbav:"date"`
	Description   string    `dynamodbav:"description,omitempty"`
	LinkedEntryID string    `dynamodbav:"linkedEntryId,omitempty"`
	Deleted       bool      `dynamodbav:"deleted"`
	CreatedAt     time.Time `dynamodbav:"createdAt"`
}

// entrySK sorts entries under their account by ULID, which is creation order.
func entrySK(accountID, entryID string) string {
	return fmt.Sprintf("ACCOUNT#%s#ENTRY#%s", accountID, entryID)
}

func toEntryItem(ownerID string, e *ledger.Entry) entryItem {
	return entryItem{
		PK:            accountPK(ownerID),
		SK:            entrySK(e.AccountID, e.EntryID),
		Type:          "Entry",
		EntryID:       e.EntryID,
		AccountID:     e.AccountID,
		Kind:          string(e.Kind),
		Amount:        amountString(e.Amount),
		Date:          e.Date,
		Description:   e.Description,
		LinkedEntryID: e.LinkedEntryID,
		Deleted:       e.Deleted,
		CreatedAt:     e.CreatedAt,
	}
}

func fromEntryItem(item entryItem) (*ledger.Entry, error) {
	amount, err := parseAmount(item.Amount)
	if err != nil {
		return nil, err
	}
	return &ledger.Entry{
		EntryID:       item.EntryID,
		AccountID:     item.AccountID,
		Kind:          ledger.EntryKind(item.Kind),
		Amount:        amount,
		Date:          item.Date,
		Description:   item.Description,
		LinkedEntryID: item.LinkedEntryID,
		Deleted:       item.Deleted,
		CreatedAt:     item.CreatedAt,
	}, nil
}

// PutEntry appends a new entry to an account's history
func (r *DynamoDBEntryRepository) PutEntry(ctx context.Context, ownerID string, e *ledger.Entry) error {
	item, err := attributevalue.MarshalMap(toEntryItem(ownerID, e))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal entry", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewConflictError("entry already exists")
		}
		return commonErrors.NewInternalError("failed to create entry", err)
	}

	return nil
}

// GetEntry retrieves an entry by ID
func (r *DynamoDBEntryRepository) GetEntry(ctx context.Context, ownerID, accountID, entryID string) (*ledger.Entry, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: entrySK(accountID, entryID)},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get entry", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("entry not found")
	}

	var item entryItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal entry", err)
	}
	return fromEntryItem(item)
}

// ListEntries retrieves an account's entries in creation order. Date and
// tombstone filtering happens client-side after the key-range query.
func (r *DynamoDBEntryRepository) ListEntries(ctx context.Context, ownerID, accountID string, filter ledger.Filter) ([]*ledger.Entry, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(accountPK(ownerID))).
		And(expression.Key("SK").BeginsWith(fmt.Sprintf("ACCOUNT#%s#ENTRY#", accountID)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var entries []*ledger.Entry
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(100),
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to query entries", err)
		}

		var items []entryItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal entries", err)
		}
		for i := range items {
			e, err := fromEntryItem(items[i])
			if err != nil {
				return nil, err
			}
			if filter.Matches(e) {
				entries = append(entries, e)
			}
		}

		lastEvaluatedKey = result.LastEvaluatedKey
		if len(lastEvaluatedKey) == 0 {
			break
		}
	}

	return entries, nil
}

// MarkDeleted tombstones an entry. The item stays in place so history reads
// with IncludeDeleted can still see it.
func (r *DynamoDBEntryRepository) MarkDeleted(ctx context.Context, ownerID, accountID, entryID string) error {
	update := expression.Set(expression.Name("deleted"), expression.Value(true))
	condition := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: entrySK(accountID, entryID)},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError("entry not found")
		}
		return commonErrors.NewInternalError("failed to tombstone entry", err)
	}

	return nil
}

var _ ledger.Repository = (*DynamoDBEntryRepository)(nil)
