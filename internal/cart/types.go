package cart

import (
	"fmt"
	"strings"
	"time"
)

// Cart bounds enforced before any per-line work happens.
const (
	MaxLines    = 50
	MaxQuantity = 100
	// toleranceCents is the accepted claimed-vs-authoritative price delta,
	// in whole cents; covers rounding drift only.
	toleranceCents = 1
)

// Line is one untrusted client-submitted cart line. The claimed price is only
// ever compared against the authoritative price, never used beyond that.
type Line struct {
	ProductID        string  `json:"product_id" validate:"required"`
	ClaimedUnitPrice float64 `json:"claimed_unit_price" validate:"required,gt=0"`
	Quantity         int     `json:"quantity" validate:"required,min=1,max=100"`
	Size             string  `json:"size,omitempty"`
	Color            string  `json:"color,omitempty"`
	Category         string  `json:"category,omitempty"`
}

// CheckoutRequest is the payload for POST /checkout.
type CheckoutRequest struct {
	Items         []Line `json:"items" validate:"required,min=1,max=50,dive"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	SuccessURL    string `json:"success_url" validate:"required,url"`
	CancelURL     string `json:"cancel_url" validate:"required,url"`
}

// ValidatedLine is a cart line whose identity and price have been re-derived
// from the provider. VerifiedUnitPrice comes from the provider, not the client.
type ValidatedLine struct {
	ProductID         string    `json:"product_id"`
	ProviderProductID string    `json:"provider_product_id"`
	ProviderPriceID   string    `json:"provider_price_id"`
	VerifiedUnitPrice float64   `json:"verified_unit_price"`
	LineTotal         float64   `json:"line_total"`
	Quantity          int       `json:"quantity"`
	Size              string    `json:"size,omitempty"`
	Color             string    `json:"color,omitempty"`
	VerifiedAt        time.Time `json:"verified_at"`
}

// ValidatedCart exists only for the life of one checkout request.
type ValidatedCart struct {
	Lines       []ValidatedLine `json:"lines"`
	TotalAmount float64         `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	ValidatedAt time.Time       `json:"validated_at"`
}

// ValidationError aggregates every per-line failure so one response can tell
// the client everything wrong with the cart.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cart validation failed: %s", strings.Join(e.Reasons, "; "))
}
