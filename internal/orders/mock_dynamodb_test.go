package orders

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory stand-in for the orders table. Items are
// keyed by "userId|orderId". It understands just enough of the expressions
// the Store issues: the userId key condition on Query and the nested
// data.status conditional update used by MarkCanceled.
// NOTE: intentionally minimal, not production-grade.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	queryCalls  int
	updateCalls int
	failNext    error // when set, the next call returns this error once
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func compositeKey(attrs map[string]types.AttributeValue) (string, error) {
	u, ok := attrs["userId"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing userId")
	}
	o, ok := attrs["orderId"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing orderId")
	}
	return u.Value + "|" + o.Value, nil
}

func (m *mockDynamo) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	k, err := compositeKey(params.Item)
	if err != nil {
		return nil, err
	}
	m.items[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	k, err := compositeKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	uid, ok := params.ExpressionAttributeValues[":uid"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing :uid value")
	}
	out := &dyn.QueryOutput{}
	for k, item := range m.items {
		if strings.HasPrefix(k, uid.Value+"|") {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	k, err := compositeKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	data, ok := item["data"].(*types.AttributeValueMemberM)
	if !ok {
		return nil, errors.New("record has no data attribute")
	}
	// condition: #d.#s = :placed
	if placed, ok := params.ExpressionAttributeValues[":placed"]; ok {
		curr, ok := data.Value["status"].(*types.AttributeValueMemberS)
		if !ok || curr.Value != placed.(*types.AttributeValueMemberS).Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	// apply: SET #d.#s = :canceled
	if canceled, ok := params.ExpressionAttributeValues[":canceled"]; ok {
		data.Value["status"] = canceled
	}
	m.items[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	k, err := compositeKey(params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.items, k)
	return &dyn.DeleteItemOutput{}, nil
}
