package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/imrishuroy/go-checkout-flow/internal/config"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

// Entry is an immutable catalog record derived from the provider's product
// and price objects. Snapshots are replaced wholesale; entries are never
// mutated in place.
type Entry struct {
	InternalID        string            `json:"internal_id"`
	ProviderProductID string            `json:"provider_product_id"`
	ProviderPriceID   string            `json:"provider_price_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Images            []string          `json:"images,omitempty"`
	UnitPrice         float64           `json:"unit_price"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// FetchError indicates the provider could not be reached during a refresh.
// The previous snapshot, if any, keeps serving.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("catalog fetch: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// ErrEntryNotFound is returned by Lookup for unknown internal ids.
var ErrEntryNotFound = errors.New("catalog entry not found")

type snapshot struct {
	entries   map[string]Entry
	fetchedAt time.Time
}

// Cache serves catalog browsing reads from an atomically swapped in-memory
// snapshot. It is not consulted for checkout price validation, which always
// goes to the provider directly.
type Cache struct {
	client   provider.Client
	products map[string]config.ProductRef
	fallback SnapshotStore // optional shared last-known-good tier

	snap  atomic.Pointer[snapshot]
	stale atomic.Bool
	group singleflight.Group
}

// NewCache builds a cache over the given provider client and product mapping.
// fallback may be nil.
func NewCache(client provider.Client, products map[string]config.ProductRef, fallback SnapshotStore) *Cache {
	return &Cache{
		client:   client,
		products: products,
		fallback: fallback,
	}
}

// Refresh fetches all active products and their current price and swaps in a
// new snapshot. Readers never observe a partially built map. Concurrent
// refreshes collapse into a single provider fetch.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		entries, err := c.fetch(ctx)
		if err != nil {
			return nil, &FetchError{Err: err}
		}
		c.snap.Store(&snapshot{entries: entries, fetchedAt: time.Now()})
		c.stale.Store(false)
		if c.fallback != nil {
			// best effort; a dead fallback tier must not fail the refresh
			_ = c.fallback.Set(ctx, flatten(entries))
		}
		return nil, nil
	})
	return err
}

// Invalidate marks the current snapshot stale. The next read forces a
// refresh; no fetch happens here.
func (c *Cache) Invalidate() {
	c.stale.Store(true)
}

// Lookup returns the entry for an internal product id, refreshing first if
// the snapshot is stale or absent.
func (c *Cache) Lookup(ctx context.Context, internalID string) (*Entry, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := snap.entries[internalID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, internalID)
	}
	return &e, nil
}

// List returns every entry in the current snapshot.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return flatten(snap.entries), nil
}

// current returns a serving snapshot, refreshing when stale or empty. A
// failed refresh falls back to the previous snapshot (stale-but-available),
// then to the shared fallback tier on a cold start.
func (c *Cache) current(ctx context.Context) (*snapshot, error) {
	if s := c.snap.Load(); s != nil && !c.stale.Load() {
		return s, nil
	}

	refreshErr := c.Refresh(ctx)
	if s := c.snap.Load(); s != nil {
		return s, nil
	}
	if refreshErr != nil && c.fallback != nil {
		if entries, ferr := c.fallback.Get(ctx); ferr == nil {
			s := &snapshot{entries: index(entries), fetchedAt: time.Now()}
			c.snap.Store(s)
			return s, nil
		}
	}
	if refreshErr != nil {
		return nil, refreshErr
	}
	return c.snap.Load(), nil
}

func (c *Cache) fetch(ctx context.Context) (map[string]Entry, error) {
	products, err := c.client.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	byProviderID := make(map[string]provider.Product, len(products))
	for _, p := range products {
		byProviderID[p.ID] = p
	}

	entries := make(map[string]Entry, len(c.products))
	for internalID, ref := range c.products {
		p, ok := byProviderID[ref.ProviderProductID]
		if !ok {
			// product retired on the provider side; skip rather than fail
			continue
		}
		price, err := c.client.GetPrice(ctx, ref.ProviderPriceID)
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", ref.ProviderPriceID, err)
		}
		entries[internalID] = Entry{
			InternalID:        internalID,
			ProviderProductID: p.ID,
			ProviderPriceID:   price.ID,
			Name:              p.Name,
			Description:       p.Description,
			Images:            p.Images,
			UnitPrice:         price.UnitPrice(),
			Currency:          price.Currency,
			Metadata:          p.Metadata,
		}
	}
	return entries, nil
}

func flatten(m map[string]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	return out
}

func index(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.InternalID] = e
	}
	return m
}
