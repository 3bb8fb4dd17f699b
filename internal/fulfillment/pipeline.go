package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
	"github.com/imrishuroy/go-checkout-flow/internal/notify"
	"github.com/imrishuroy/go-checkout-flow/internal/orders"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

// ErrPaymentNotComplete means fulfillment was attempted before the provider
// reported the session settled. No order is created; the caller retries later
// or surfaces "pending".
var ErrPaymentNotComplete = errors.New("payment not complete")

// Error wraps unexpected provider or store failures during fulfillment.
// Fulfillment is idempotent per session, so retrying after one is safe.
type Error struct {
	SessionID string
	Err       error
}

func (e *Error) Error() string { return fmt.Sprintf("fulfill session %s: %v", e.SessionID, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Metrics is the sink for fulfillment counters. Implementations must never
// fail the request path; awsx.Metrics satisfies this.
type Metrics interface {
	Count(ctx context.Context, name string, dims map[string]string)
}

type noopMetrics struct{}

func (noopMetrics) Count(context.Context, string, map[string]string) {}

// Pipeline turns a settled provider session into exactly one persisted order,
// no matter which trigger fires first or how often either repeats. The store's
// Save is the final arbiter; the lookup here is the cheap short-circuit.
type Pipeline struct {
	store      orders.Store
	client     provider.Client
	dispatcher notify.Dispatcher
	idgen      orders.IDGenerator
	metrics    Metrics
	nowFunc    func() time.Time
}

func NewPipeline(store orders.Store, client provider.Client, dispatcher notify.Dispatcher, idgen orders.IDGenerator, metrics Metrics) *Pipeline {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Pipeline{
		store:      store,
		client:     client,
		dispatcher: dispatcher,
		idgen:      idgen,
		metrics:    metrics,
		nowFunc:    time.Now,
	}
}

// Fulfill drives a session from unseen to fulfilled. Both the client verify
// call and the webhook land here.
func (p *Pipeline) Fulfill(ctx context.Context, sessionID string) (*orders.Order, error) {
	existing, err := p.store.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, &Error{SessionID: sessionID, Err: err}
	}
	if existing != nil {
		p.metrics.Count(ctx, "DuplicateFulfillTrigger", nil)
		return existing, nil
	}

	session, err := p.client.GetSession(ctx, sessionID, []string{"customer_details", "shipping_details", "payment_intent"})
	if err != nil {
		return nil, &Error{SessionID: sessionID, Err: err}
	}
	if session.PaymentStatus != provider.PaymentStatusPaid {
		p.metrics.Count(ctx, "FulfillBeforeSettlement", nil)
		return nil, fmt.Errorf("%w: session %s is %s", ErrPaymentNotComplete, sessionID, session.PaymentStatus)
	}

	lineItems, err := p.client.ListLineItems(ctx, sessionID)
	if err != nil {
		return nil, &Error{SessionID: sessionID, Err: err}
	}

	orderID, err := p.idgen.NewOrderID()
	if err != nil {
		return nil, &Error{SessionID: sessionID, Err: err}
	}

	order := p.buildOrder(orderID, session, lineItems)
	persisted, err := p.store.Save(ctx, order)
	if err != nil {
		return nil, &Error{SessionID: sessionID, Err: err}
	}
	if persisted.OrderID != orderID {
		// a racing trigger won the insert; its order stands
		p.metrics.Count(ctx, "DuplicateFulfillTrigger", nil)
		return persisted, nil
	}
	p.metrics.Count(ctx, "OrderFulfilled", map[string]string{"Currency": strings.ToUpper(order.Currency)})

	// notifications never fail fulfillment; the order is already persisted
	if err := p.dispatcher.SendCustomerConfirmation(ctx, persisted); err != nil {
		log.Printf("fulfill: customer notification failed for order=%s: %v", persisted.OrderID, err)
	}
	if err := p.dispatcher.SendOwnerNotification(ctx, persisted); err != nil {
		log.Printf("fulfill: owner notification failed for order=%s: %v", persisted.OrderID, err)
	}

	return persisted, nil
}

// buildOrder assembles the order entity from the expanded session, the
// provider line items and the cart metadata written at session creation.
func (p *Pipeline) buildOrder(orderID string, session *provider.Session, lineItems []provider.LineItem) *orders.Order {
	now := p.nowFunc()

	// size/color live only in the session metadata we wrote ourselves
	metaLines := checkout.DecodeCartMetadata(session.Metadata)

	items := make([]orders.Item, 0, len(lineItems))
	for i, li := range lineItems {
		item := orders.Item{
			Description: li.Description,
			ProductID:   li.ProductID,
			Quantity:    int(li.Quantity),
		}
		if li.Quantity > 0 {
			item.UnitPrice = float64(li.AmountTotal) / float64(li.Quantity) / 100
		}
		// provider line items come back in the order they were submitted
		if i < len(metaLines) {
			item.Size = metaLines[i].Size
			item.Color = metaLines[i].Color
			if item.ProductID == "" {
				item.ProductID = metaLines[i].ProductID
			}
		}
		items = append(items, item)
	}

	order := &orders.Order{
		OrderID:       orderID,
		SessionID:     session.ID,
		PaymentRef:    session.PaymentIntentID,
		Amount:        float64(session.AmountTotal) / 100,
		Currency:      session.Currency,
		PaymentStatus: orders.PaymentStatusPaid,
		Items:         items,
		Metadata:      session.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if cd := session.CustomerDetails; cd != nil {
		order.CustomerEmail = cd.Email
		order.CustomerName = cd.Name
	}
	if sd := session.ShippingDetails; sd != nil && sd.Address != nil {
		order.ShippingAddress = &orders.Address{
			Line1:      sd.Address.Line1,
			Line2:      sd.Address.Line2,
			City:       sd.Address.City,
			State:      sd.Address.State,
			PostalCode: sd.Address.PostalCode,
			Country:    sd.Address.Country,
		}
	}
	return order
}
