package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store backend. All operations are whole-record
// inserts or swaps under one mutex, so the insert-if-absent contract holds
// under concurrent saves for the same session.
type MemoryStore struct {
	mu        sync.Mutex
	byID      map[string]*Order
	bySession map[string]*Order
	nowFunc   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      map[string]*Order{},
		bySession: map[string]*Order{},
		nowFunc:   time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, order *Order) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.bySession[order.SessionID]; ok {
		return copyOrder(existing), nil
	}
	if existing, ok := s.byID[order.OrderID]; ok {
		return copyOrder(existing), nil
	}

	stored := copyOrder(order)
	now := s.nowFunc()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.byID[stored.OrderID] = stored
	s.bySession[stored.SessionID] = stored
	return copyOrder(stored), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.bySession[sessionID]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	updated := copyOrder(o)
	updated.PaymentStatus = status
	updated.UpdatedAt = s.nowFunc()
	s.byID[orderID] = updated
	s.bySession[updated.SessionID] = updated
	return copyOrder(updated), nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Order, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func copyOrder(o *Order) *Order {
	dup := *o
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		dup.ShippingAddress = &addr
	}
	if o.Items != nil {
		dup.Items = append([]Item(nil), o.Items...)
	}
	if o.Metadata != nil {
		dup.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			dup.Metadata[k] = v
		}
	}
	return &dup
}
