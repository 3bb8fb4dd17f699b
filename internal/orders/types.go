package orders

import "time"

// Payment statuses carried on an order.
const (
	PaymentStatusPaid     = "PAID"
	PaymentStatusRefunded = "REFUNDED"
	PaymentStatusDisputed = "DISPUTED"
)

// Address is the shipping destination captured from the provider session.
type Address struct {
	Line1      string `json:"line1,omitempty" dynamodbav:"line1,omitempty"`
	Line2      string `json:"line2,omitempty" dynamodbav:"line2,omitempty"`
	City       string `json:"city,omitempty" dynamodbav:"city,omitempty"`
	State      string `json:"state,omitempty" dynamodbav:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty" dynamodbav:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" dynamodbav:"country,omitempty"`
}

// Item is one purchased line on a persisted order.
type Item struct {
	ProductID   string  `json:"product_id,omitempty" dynamodbav:"product_id,omitempty"`
	Description string  `json:"description" dynamodbav:"description"`
	Quantity    int     `json:"quantity" dynamodbav:"quantity"`
	UnitPrice   float64 `json:"unit_price" dynamodbav:"unit_price"`
	Size        string  `json:"size,omitempty" dynamodbav:"size,omitempty"`
	Color       string  `json:"color,omitempty" dynamodbav:"color,omitempty"`
}

// Order is created exactly once per provider session; the store's Save is
// the arbiter of that uniqueness. Mutated only through status updates.
type Order struct {
	OrderID         string            `json:"order_id" dynamodbav:"order_id"` // PK
	SessionID       string            `json:"session_id" dynamodbav:"session_id"`
	PaymentRef      string            `json:"payment_ref,omitempty" dynamodbav:"payment_ref,omitempty"`
	CustomerEmail   string            `json:"customer_email" dynamodbav:"customer_email"`
	CustomerName    string            `json:"customer_name,omitempty" dynamodbav:"customer_name,omitempty"`
	Amount          float64           `json:"amount" dynamodbav:"amount"`
	Currency        string            `json:"currency" dynamodbav:"currency"`
	PaymentStatus   string            `json:"payment_status" dynamodbav:"payment_status"`
	ShippingAddress *Address          `json:"shipping_address,omitempty" dynamodbav:"shipping_address,omitempty"`
	Items           []Item            `json:"items,omitempty" dynamodbav:"items,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" dynamodbav:"updated_at"`
}
