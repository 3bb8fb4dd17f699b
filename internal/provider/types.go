package provider

import (
	"encoding/json"
	"time"
)

// Session payment statuses as reported by the provider.
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// EventCheckoutCompleted is the event type that triggers fulfillment.
const EventCheckoutCompleted = "checkout.session.completed"

// Product is the provider's view of a sellable item.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Active         bool              `json:"active"`
	DefaultPriceID string            `json:"default_price,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Price is an authoritative price record. UnitAmount is in minor units.
type Price struct {
	ID         string `json:"id"`
	ProductID  string `json:"product"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Active     bool   `json:"active"`
}

// UnitPrice returns the price in major currency units, e.g. 8000 -> 80.00.
func (p Price) UnitPrice() float64 {
	return float64(p.UnitAmount) / 100
}

// SessionLineItem is one line of a session creation request. The price id
// carries the verified price; Quantity is the only client-derived field.
type SessionLineItem struct {
	PriceID  string `json:"price"`
	Quantity int64  `json:"quantity"`
}

// SessionRequest describes a hosted checkout session to be created.
type SessionRequest struct {
	LineItems         []SessionLineItem `json:"line_items"`
	Mode              string            `json:"mode"`
	CustomerEmail     string            `json:"customer_email"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	ShippingCountries []string          `json:"shipping_countries,omitempty"`
	ShippingAmount    int64             `json:"shipping_amount"`
	TaxRate           float64           `json:"tax_rate,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Address is a postal address attached to a session's shipping detail.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CustomerDetails is the customer block of an expanded session.
type CustomerDetails struct {
	Email   string   `json:"email"`
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// ShippingDetails is the shipping block of an expanded session.
type ShippingDetails struct {
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Session is a provider-issued checkout session.
type Session struct {
	ID              string            `json:"id"`
	URL             string            `json:"url,omitempty"`
	PaymentStatus   string            `json:"payment_status"`
	PaymentIntentID string            `json:"payment_intent,omitempty"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerDetails *CustomerDetails  `json:"customer_details,omitempty"`
	ShippingDetails *ShippingDetails  `json:"shipping_details,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// LineItem is one purchased line of a completed session.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	AmountTotal int64  `json:"amount_total"`
	PriceID     string `json:"price,omitempty"`
	ProductID   string `json:"product,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// Event is a signed provider notification. Data holds the raw event object;
// for checkout.session.completed it unmarshals into Session.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// Session decodes the event payload as a checkout session.
func (e Event) Session() (*Session, error) {
	var s Session
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
