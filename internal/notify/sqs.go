package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-checkout-flow/internal/awsx"
	"github.com/imrishuroy/go-checkout-flow/internal/orders"
)

// SQSDispatcher enqueues notification jobs for the email worker instead of
// sending inline, keeping fulfillment latency off the email path.
type SQSDispatcher struct {
	client     awsx.SQSAPI
	queueURL   string
	ownerEmail string
}

func NewSQSDispatcher(client awsx.SQSAPI, queueURL, ownerEmail string) *SQSDispatcher {
	return &SQSDispatcher{
		client:     client,
		queueURL:   queueURL,
		ownerEmail: ownerEmail,
	}
}

func (d *SQSDispatcher) SendCustomerConfirmation(ctx context.Context, order *orders.Order) error {
	return d.enqueue(ctx, Job{
		Kind:      KindCustomerConfirmation,
		Recipient: order.CustomerEmail,
		Order:     order,
	})
}

func (d *SQSDispatcher) SendOwnerNotification(ctx context.Context, order *orders.Order) error {
	return d.enqueue(ctx, Job{
		Kind:      KindOwnerNotification,
		Recipient: d.ownerEmail,
		Order:     order,
	})
}

func (d *SQSDispatcher) enqueue(ctx context.Context, job Job) error {
	if job.CorrelationID == "" {
		job.CorrelationID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal notification job: %w", err)
	}

	bodyStr := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &d.queueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"kind": {
				DataType:    awsString("String"),
				StringValue: &job.Kind,
			},
			"order_id": {
				DataType:    awsString("String"),
				StringValue: &job.Order.OrderID,
			},
			"correlation_id": {
				DataType:    awsString("String"),
				StringValue: &job.CorrelationID,
			},
		},
	}

	if _, err := d.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
