package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-checkout-flow/internal/notify"
	"github.com/imrishuroy/go-checkout-flow/internal/orders"
)

// Processor consumes notification jobs from SQS and sends the rendered
// emails.
type Processor struct {
	sender EmailSender
}

func NewProcessor(sender EmailSender) *Processor {
	return &Processor{sender: sender}
}

// Handle receives an SQS batch event and processes each message. A failed
// message fails the batch so the runtime redelivers; repeated failures land
// in the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var job notify.Job
	if err := json.Unmarshal([]byte(rec.Body), &job); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if job.Order == nil || job.Recipient == "" {
		return fmt.Errorf("incomplete notification job: kind=%s", job.Kind)
	}

	log.Printf("[worker] received kind=%s order=%s corr=%s", job.Kind, job.Order.OrderID, job.CorrelationID)

	var subject, body string
	switch job.Kind {
	case notify.KindCustomerConfirmation:
		subject, body = renderCustomerConfirmation(job.Order)
	case notify.KindOwnerNotification:
		subject, body = renderOwnerNotification(job.Order)
	default:
		return fmt.Errorf("unknown notification kind: %s", job.Kind)
	}

	if err := p.sender.Send(ctx, job.Recipient, subject, body); err != nil {
		return fmt.Errorf("send %s for order=%s: %w", job.Kind, job.Order.OrderID, err)
	}

	log.Printf("[worker] sent kind=%s order=%s to=%s", job.Kind, job.Order.OrderID, job.Recipient)
	return nil
}

func renderCustomerConfirmation(o *orders.Order) (subject, body string) {
	subject = fmt.Sprintf("Order confirmed: %s", o.OrderID)

	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order, %s!\n\n", firstNonEmpty(o.CustomerName, "there"))
	fmt.Fprintf(&b, "Order %s\n\n", o.OrderID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %dx %s", it.Quantity, it.Description)
		if it.Size != "" {
			fmt.Fprintf(&b, " (size %s)", it.Size)
		}
		fmt.Fprintf(&b, " - %.2f\n", it.UnitPrice*float64(it.Quantity))
	}
	fmt.Fprintf(&b, "\nTotal: %.2f %s\n", o.Amount, strings.ToUpper(o.Currency))
	if a := o.ShippingAddress; a != nil {
		fmt.Fprintf(&b, "\nShipping to: %s, %s %s, %s\n", a.Line1, a.City, a.PostalCode, a.Country)
	}
	return subject, b.String()
}

func renderOwnerNotification(o *orders.Order) (subject, body string) {
	subject = fmt.Sprintf("New order %s - %.2f %s", o.OrderID, o.Amount, strings.ToUpper(o.Currency))

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s from %s <%s>\n", o.OrderID, o.CustomerName, o.CustomerEmail)
	fmt.Fprintf(&b, "Session: %s\nPayment ref: %s\n\n", o.SessionID, o.PaymentRef)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %dx %s\n", it.Quantity, it.Description)
	}
	return subject, b.String()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// logSender is the default EmailSender; deployments plug a real SMTP or SES
// sender in via buildSender.
type logSender struct{}

func (logSender) Send(ctx context.Context, to, subject, body string) error {
	log.Printf("[email] to=%s subject=%q\n%s", to, subject, body)
	return nil
}
