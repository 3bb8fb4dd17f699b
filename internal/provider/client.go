package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Client is the outbound payment-provider boundary. Implementations must
// bound every call; callers treat expiry as a transient failure.
type Client interface {
	ListActiveProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetPrice(ctx context.Context, id string) (*Price, error)
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string, expand []string) (*Session, error)
	ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
}

// ErrNotFound indicates the provider has no record for the requested id.
var ErrNotFound = errors.New("provider: not found")

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsTransient reports whether err is worth retrying: timeouts, connection
// failures and provider 5xx responses. Authoritative rejections (not found,
// 4xx) are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode >= 500 || ae.StatusCode == 429
	}
	return false
}
