package notify

import (
	"context"
	"log"

	"github.com/imrishuroy/go-checkout-flow/internal/orders"
)

// Recipient kinds carried on a notification job.
const (
	KindCustomerConfirmation = "customer_confirmation"
	KindOwnerNotification    = "owner_notification"
)

// Job is the payload sent to the notification queue and consumed by the
// email worker.
type Job struct {
	Kind          string        `json:"kind"`
	Recipient     string        `json:"recipient"`
	Order         *orders.Order `json:"order"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// Dispatcher sends order notifications. Both calls are fire-and-forget from
// the fulfillment pipeline's perspective: errors are reported to the caller
// for logging but must never fail fulfillment.
type Dispatcher interface {
	SendCustomerConfirmation(ctx context.Context, order *orders.Order) error
	SendOwnerNotification(ctx context.Context, order *orders.Order) error
}

// LogDispatcher only logs. Used when no queue is configured.
type LogDispatcher struct{}

func (LogDispatcher) SendCustomerConfirmation(ctx context.Context, order *orders.Order) error {
	log.Printf("notify: customer confirmation for order=%s to=%s", order.OrderID, order.CustomerEmail)
	return nil
}

func (LogDispatcher) SendOwnerNotification(ctx context.Context, order *orders.Order) error {
	log.Printf("notify: owner notification for order=%s amount=%.2f %s", order.OrderID, order.Amount, order.Currency)
	return nil
}
