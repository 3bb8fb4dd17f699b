package orders

import (
	"context"
	"errors"
)

// ErrOrderNotFound is returned by id-keyed lookups with no match.
var ErrOrderNotFound = errors.New("order not found")

// Store persists orders. Save is an atomic insert-if-absent keyed by the
// order's SessionID: under concurrent duplicate triggers the losing writer
// observes and returns the winner's order instead of creating a second one.
// A duplicate OrderID save is likewise an idempotent no-op.
type Store interface {
	Save(ctx context.Context, order *Order) (*Order, error)
	// GetByID returns ErrOrderNotFound when absent.
	GetByID(ctx context.Context, orderID string) (*Order, error)
	// GetBySessionID returns (nil, nil) when absent.
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	// UpdateStatus returns the updated order, or ErrOrderNotFound.
	UpdateStatus(ctx context.Context, orderID, status string) (*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
}
