package orders

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// mockDynamo is a small in-memory stand-in for the DynamoDB client. It stores
// items per table (table -> pkValue -> item) and honors the two conditional
// expressions the store relies on.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	pks    map[string]string // table name -> primary key attribute

	// report condition failures as generic smithy errors instead of the
	// concrete exception types, the way wrapping middleware can
	failByErrorCode bool

	transactCalls int
	getCalls      int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
		pks: map[string]string{
			"orders-test":       "order_id",
			"session-keys-test": "session_id",
		},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func (m *mockDynamo) pkValue(tbl string, item map[string]types.AttributeValue) (string, error) {
	attr, ok := item[m.pks[tbl]]
	if !ok {
		return "", errors.New("missing primary key attribute")
	}
	s, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("primary key is not a string")
	}
	return s.Value, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++

	// check all conditions before writing anything
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			continue
		}
		tbl := *p.TableName
		m.ensureTable(tbl)
		if p.ConditionExpression != nil && strings.HasPrefix(*p.ConditionExpression, "attribute_not_exists(") {
			pk, err := m.pkValue(tbl, p.Item)
			if err != nil {
				return nil, err
			}
			if _, exists := m.tables[tbl][pk]; exists {
				if m.failByErrorCode {
					return nil, &smithy.GenericAPIError{Code: "TransactionCanceledException"}
				}
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			continue
		}
		tbl := *p.TableName
		pk, err := m.pkValue(tbl, p.Item)
		if err != nil {
			return nil, err
		}
		m.tables[tbl][pk] = p.Item
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++

	tbl := *params.TableName
	m.ensureTable(tbl)
	pk, err := m.pkValue(tbl, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[tbl][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tbl := *params.TableName
	m.ensureTable(tbl)
	pk, err := m.pkValue(tbl, params.Item)
	if err != nil {
		return nil, err
	}
	m.tables[tbl][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tbl := *params.TableName
	m.ensureTable(tbl)
	pk, err := m.pkValue(tbl, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[tbl][pk]
	if !ok {
		if params.ConditionExpression != nil && strings.HasPrefix(*params.ConditionExpression, "attribute_exists(") {
			if m.failByErrorCode {
				return nil, &smithy.GenericAPIError{Code: "ConditionalCheckFailedException"}
			}
			return nil, &types.ConditionalCheckFailedException{}
		}
		return nil, errors.New("item not found")
	}

	// naive update supporting SET #s = :new, updated_at = :ua
	updated := map[string]types.AttributeValue{}
	for k, v := range item {
		updated[k] = v
	}
	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		attr := "payment_status"
		if name, ok := params.ExpressionAttributeNames["#s"]; ok {
			attr = name
		}
		updated[attr] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		updated["updated_at"] = v
	}
	m.tables[tbl][pk] = updated
	return &dyn.UpdateItemOutput{Attributes: updated}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tbl := *params.TableName
	m.ensureTable(tbl)
	out := &dyn.ScanOutput{}
	for _, item := range m.tables[tbl] {
		out.Items = append(out.Items, item)
	}
	return out, nil
}
