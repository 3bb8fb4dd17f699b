package checkout

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/imrishuroy/go-checkout-flow/internal/cart"
	"github.com/imrishuroy/go-checkout-flow/internal/config"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

// metadataLine is the compact per-line encoding carried in session metadata.
// The asynchronous completed event does not carry full cart context, so this
// is what fulfillment uses to reconstruct item identity, size and color.
type metadataLine struct {
	P string `json:"p"`           // internal product id
	Q int    `json:"q"`           // quantity
	S string `json:"s,omitempty"` // size
	C string `json:"c,omitempty"` // color
}

// Builder turns a validated cart into a provider session request. Pure
// transformation; no network calls happen here.
type Builder struct {
	shippingCountries     []string
	freeShippingThreshold float64
	flatShippingRate      float64
	taxRate               float64
}

func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		shippingCountries:     cfg.ShippingCountries,
		freeShippingThreshold: cfg.FreeShippingThreshold,
		flatShippingRate:      cfg.FlatShippingRate,
		taxRate:               cfg.TaxRate,
	}
}

// BuildSession emits one line item per validated line, using only the
// verified provider price id. The caller submits the request to the provider.
func (b *Builder) BuildSession(vc *cart.ValidatedCart, customerEmail, successURL, cancelURL string) *provider.SessionRequest {
	items := make([]provider.SessionLineItem, 0, len(vc.Lines))
	meta := make([]metadataLine, 0, len(vc.Lines))
	for _, l := range vc.Lines {
		items = append(items, provider.SessionLineItem{
			PriceID:  l.ProviderPriceID,
			Quantity: int64(l.Quantity),
		})
		meta = append(meta, metadataLine{P: l.ProductID, Q: l.Quantity, S: l.Size, C: l.Color})
	}

	// metadata values must be strings on the provider side
	encoded, _ := json.Marshal(meta)

	return &provider.SessionRequest{
		LineItems:         items,
		Mode:              "payment",
		CustomerEmail:     customerEmail,
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
		ShippingCountries: b.shippingCountries,
		ShippingAmount:    b.shippingAmount(vc.TotalAmount),
		TaxRate:           b.taxRate,
		Metadata: map[string]string{
			"cart":         string(encoded),
			"item_count":   strconv.Itoa(vc.ItemCount),
			"cart_total":   fmt.Sprintf("%.2f", vc.TotalAmount),
			"validated_at": vc.ValidatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
	}
}

// shippingAmount applies the free-shipping threshold, in minor units.
func (b *Builder) shippingAmount(total float64) int64 {
	if total >= b.freeShippingThreshold {
		return 0
	}
	return int64(math.Round(b.flatShippingRate * 100))
}

// DecodeCartMetadata reverses the encoding done by BuildSession. A missing or
// unparseable value yields an empty slice, never an error: fulfillment can
// still build an order from provider line items alone.
func DecodeCartMetadata(metadata map[string]string) []cart.Line {
	raw, ok := metadata["cart"]
	if !ok {
		return nil
	}
	var meta []metadataLine
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	out := make([]cart.Line, 0, len(meta))
	for _, m := range meta {
		out = append(out, cart.Line{ProductID: m.P, Quantity: m.Q, Size: m.S, Color: m.C})
	}
	return out
}
