package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-checkout-flow/internal/awsx"
)

// sessionKey is the uniqueness record written alongside each order. Its
// conditional put is what makes Save an atomic insert-if-absent per session.
type sessionKey struct {
	SessionID string `dynamodbav:"session_id"` // PK
	OrderID   string `dynamodbav:"order_id"`
	CreatedAt string `dynamodbav:"created_at"`
}

// DynamoStore is the DynamoDB Store backend: an orders table keyed by
// order_id plus a session-keys table keyed by session_id.
type DynamoStore struct {
	client       awsx.DynamoDBAPI
	ordersTable  string
	sessionTable string
	nowFunc      func() time.Time
}

func NewDynamoStore(client awsx.DynamoDBAPI, ordersTable, sessionTable string) *DynamoStore {
	return &DynamoStore{
		client:       client,
		ordersTable:  ordersTable,
		sessionTable: sessionTable,
		nowFunc:      time.Now,
	}
}

// Save transactionally writes the session-key record (with
// ConditionExpression attribute_not_exists(session_id)) and the order record.
// When the transaction cancels because another writer won the race, the
// winner's order is read back and returned.
func (s *DynamoStore) Save(ctx context.Context, order *Order) (*Order, error) {
	stored := *order
	now := s.nowFunc()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(stored)
	if err != nil {
		return nil, fmt.Errorf("marshal order item: %w", err)
	}
	keyMap, err := attributevalue.MarshalMap(sessionKey{
		SessionID: stored.SessionID,
		OrderID:   stored.OrderID,
		CreatedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session key: %w", err)
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &s.sessionTable,
					Item:                keyMap,
					ConditionExpression: awsString("attribute_not_exists(session_id)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.ordersTable,
					Item:                orderMap,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		if isConditionCanceled(err) {
			existing, getErr := s.GetBySessionID(ctx, stored.SessionID)
			if getErr != nil {
				return nil, fmt.Errorf("read racing order: %w", getErr)
			}
			if existing != nil {
				return existing, nil
			}
			// not a session race: the order id itself already exists
			existing, getErr = s.GetByID(ctx, stored.OrderID)
			if getErr != nil && !errors.Is(getErr, ErrOrderNotFound) {
				return nil, fmt.Errorf("read colliding order: %w", getErr)
			}
			if existing != nil {
				return existing, nil
			}
			return nil, fmt.Errorf("transaction canceled without existing order: %w", err)
		}
		return nil, fmt.Errorf("transact write: %w", err)
	}
	return &stored, nil
}

// isConditionCanceled matches a transaction cancellation both as the concrete
// SDK type and by smithy error code, since middleware can wrap the former.
func isConditionCanceled(err error) bool {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "TransactionCanceledException"
}

// GetByID fetches an order by order_id.
func (s *DynamoStore) GetByID(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.ordersTable,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrOrderNotFound
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// GetBySessionID resolves the session key, then the order. Returns (nil, nil)
// when no order exists for the session.
func (s *DynamoStore) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.sessionTable,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get session key: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var key sessionKey
	if err := attributevalue.UnmarshalMap(out.Item, &key); err != nil {
		return nil, fmt.Errorf("unmarshal session key: %w", err)
	}

	o, err := s.GetByID(ctx, key.OrderID)
	if errors.Is(err, ErrOrderNotFound) {
		// key without order: the transact write makes this unreachable, but
		// a dangling key must read as absent rather than error
		return nil, nil
	}
	return o, err
}

// UpdateStatus sets payment_status and returns the updated record.
func (s *DynamoStore) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	now := s.nowFunc()
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.ordersTable,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "payment_status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new": &types.AttributeValueMemberS{Value: status},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrOrderNotFound
		}
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}
	return &o, nil
}

// ListAll scans the orders table. Intended for the small admin listing, not
// a hot path.
func (s *DynamoStore) ListAll(ctx context.Context) ([]*Order, error) {
	var out []*Order
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.ordersTable,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		for _, item := range page.Items {
			var o Order
			if err := attributevalue.UnmarshalMap(item, &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			out = append(out, &o)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}
	return out, nil
}

func awsString(s string) *string { return &s }
