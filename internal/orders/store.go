package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/go-order-lifecycle/internal/aws"
)

// ErrNotFound indicates no record exists for the (userId, orderId) key.
var ErrNotFound = errors.New("order not found")

// ErrStatusMismatch indicates the conditional cancel lost to a concurrent
// transition: the record's status was no longer PLACED at write time.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

func (s *Store) key(userID, orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId":  &types.AttributeValueMemberS{Value: userID},
		"orderId": &types.AttributeValueMemberS{Value: orderID},
	}
}

// Get fetches a single order. Returns ErrNotFound if the key has no record.
func (s *Store) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(userID, orderID),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &rec.Data, nil
}

// List returns every order belonging to userID, in store order. An empty
// slice is returned when the user has no orders.
func (s *Store) List(ctx context.Context, userID string) ([]Order, error) {
	result := []Order{}
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:              &s.tableName,
			KeyConditionExpression: awsString("userId = :uid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query orders: %w", err)
		}
		for _, item := range out.Items {
			var rec Record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			result = append(result, rec.Data)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return result, nil
}

// Put writes a full record, overwriting any existing item under the same
// key. Creation relies on the idempotency guard rather than a conditional
// write, and edits are whole-payload replaces.
func (s *Store) Put(ctx context.Context, rec Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal order record: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// MarkCanceled flips data.status to CANCELED with a single conditional
// UpdateItem, leaving every other payload field untouched. The condition
// requires the current status to still be PLACED, so two racing cancels
// cannot both succeed. Returns the post-update payload, ErrStatusMismatch
// when the condition failed, or ErrNotFound when no record exists.
func (s *Store) MarkCanceled(ctx context.Context, userID, orderID string) (*Order, error) {
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(userID, orderID),
		UpdateExpression: awsString("SET #d.#s = :canceled"),
		ExpressionAttributeNames: map[string]string{
			"#d": "data",
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":canceled": &types.AttributeValueMemberS{Value: StatusCanceled},
			":placed":   &types.AttributeValueMemberS{Value: StatusPlaced},
		},
		ConditionExpression: awsString("attribute_exists(userId) AND #d.#s = :placed"),
		ReturnValues:        types.ReturnValueAllNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			// condition fails both for a missing record and a non-PLACED
			// status; distinguish with a follow-up read
			if _, gerr := s.Get(ctx, userID, orderID); errors.Is(gerr, ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, ErrStatusMismatch
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}
	return &rec.Data, nil
}

func awsString(s string) *string { return &s }
