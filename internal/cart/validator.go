package cart

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/go-checkout-flow/internal/config"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

const (
	maxPriceFetchAttempts = 3
	initialRetryBackoff   = 100 * time.Millisecond
	maxConcurrentLines    = 8
)

// Validator re-derives price and identity for every cart line from the
// provider. It deliberately bypasses the catalog cache: price correctness at
// checkout time is safety-critical, so staleness is not acceptable here.
type Validator struct {
	client          provider.Client
	products        map[string]config.ProductRef
	sizesByCategory map[string][]string
	callTimeout     time.Duration

	nowFunc   func() time.Time
	sleepFunc func(context.Context, time.Duration) error
}

// NewValidator builds a validator over the static product mapping.
func NewValidator(client provider.Client, cfg *config.Config) *Validator {
	return &Validator{
		client:          client,
		products:        cfg.Products,
		sizesByCategory: cfg.SizesByCategory,
		callTimeout:     cfg.ProviderTimeout,
		nowFunc:         time.Now,
		sleepFunc:       sleepCtx,
	}
}

// Validate checks every line independently and rejects the whole cart if any
// line fails. All per-line failures are accumulated; validation never stops
// at the first bad line. Safe to call repeatedly: no side effects beyond
// provider reads.
func (v *Validator) Validate(ctx context.Context, lines []Line) (*ValidatedCart, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Reasons: []string{"cart is empty"}}
	}
	if len(lines) > MaxLines {
		return nil, &ValidationError{Reasons: []string{fmt.Sprintf("cart exceeds %d lines", MaxLines)}}
	}

	validated := make([]*ValidatedLine, len(lines))
	var mu sync.Mutex
	var reasons []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLines)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			vl, reason := v.validateLine(gctx, line)
			mu.Lock()
			defer mu.Unlock()
			if reason != "" {
				reasons = append(reasons, reason)
				return nil
			}
			validated[i] = vl
			return nil
		})
	}
	// workers only report through the shared slices; the group never errors
	_ = g.Wait()

	if len(reasons) > 0 {
		sort.Strings(reasons)
		return nil, &ValidationError{Reasons: reasons}
	}

	cart := &ValidatedCart{
		Lines:       make([]ValidatedLine, 0, len(validated)),
		ValidatedAt: v.nowFunc(),
	}
	var total float64
	for _, vl := range validated {
		cart.Lines = append(cart.Lines, *vl)
		cart.ItemCount += vl.Quantity
		total += vl.LineTotal
	}
	cart.TotalAmount = round2(total)
	return cart, nil
}

// validateLine returns either a validated line or a human-readable rejection
// reason. Transient provider failures are retried with exponential backoff;
// authoritative rejections fail immediately.
func (v *Validator) validateLine(ctx context.Context, line Line) (*ValidatedLine, string) {
	ref, ok := v.products[line.ProductID]
	if !ok {
		return nil, fmt.Sprintf("%s: unknown product", line.ProductID)
	}
	if line.Quantity < 1 || line.Quantity > MaxQuantity {
		return nil, fmt.Sprintf("%s: quantity %d out of range [1,%d]", line.ProductID, line.Quantity, MaxQuantity)
	}
	if line.Size != "" {
		if domain, declared := v.sizesByCategory[ref.Category]; declared && !contains(domain, line.Size) {
			return nil, fmt.Sprintf("%s: invalid size %q for category %s", line.ProductID, line.Size, ref.Category)
		}
	}

	price, err := v.fetchPrice(ctx, ref.ProviderPriceID)
	if err != nil {
		return nil, fmt.Sprintf("%s: price lookup failed: %v", line.ProductID, err)
	}
	if !price.Active {
		return nil, fmt.Sprintf("%s: price is no longer active", line.ProductID)
	}

	verified := price.UnitPrice()
	if centsApart(line.ClaimedUnitPrice, verified) > toleranceCents {
		return nil, fmt.Sprintf("%s: price mismatch: claimed %.2f, actual %.2f", line.ProductID, line.ClaimedUnitPrice, verified)
	}

	return &ValidatedLine{
		ProductID:         line.ProductID,
		ProviderProductID: ref.ProviderProductID,
		ProviderPriceID:   price.ID,
		VerifiedUnitPrice: verified,
		LineTotal:         round2(verified * float64(line.Quantity)),
		Quantity:          line.Quantity,
		Size:              line.Size,
		Color:             line.Color,
		VerifiedAt:        v.nowFunc(),
	}, ""
}

// fetchPrice hits the provider directly, retrying transient failures up to
// maxPriceFetchAttempts with doubling backoff starting at 100ms.
func (v *Validator) fetchPrice(ctx context.Context, priceID string) (*provider.Price, error) {
	backoff := initialRetryBackoff
	var lastErr error
	for attempt := 1; attempt <= maxPriceFetchAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, v.callTimeout)
		price, err := v.client.GetPrice(callCtx, priceID)
		cancel()
		if err == nil {
			return price, nil
		}
		lastErr = err
		if !provider.IsTransient(err) {
			return nil, err
		}
		if attempt < maxPriceFetchAttempts {
			if err := v.sleepFunc(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxPriceFetchAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// centsApart compares two prices in whole cents, sidestepping float drift.
func centsApart(a, b float64) int64 {
	diff := int64(math.Round(a*100)) - int64(math.Round(b*100))
	if diff < 0 {
		return -diff
	}
	return diff
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
