package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func sampleOrder(orderID, sessionID string) *Order {
	return &Order{
		OrderID:       orderID,
		SessionID:     sessionID,
		CustomerEmail: "buyer@example.com",
		Amount:        80.00,
		Currency:      "usd",
		PaymentStatus: PaymentStatusPaid,
		Items: []Item{
			{ProductID: "ring-black", Description: "Black Ring", Quantity: 1, UnitPrice: 80.00, Size: "7"},
		},
	}
}

func TestMemoryStore_SaveAndLookups(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	saved, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set on save")
	}

	byID, err := s.GetByID(ctx, "ORD-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.SessionID != "cs_1" {
		t.Fatalf("unexpected order %+v", byID)
	}

	bySession, err := s.GetBySessionID(ctx, "cs_1")
	if err != nil {
		t.Fatalf("get by session: %v", err)
	}
	if bySession == nil || bySession.OrderID != "ORD-1" {
		t.Fatalf("unexpected order %+v", bySession)
	}

	if _, err := s.GetByID(ctx, "ORD-404"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	absent, err := s.GetBySessionID(ctx, "cs_404")
	if err != nil || absent != nil {
		t.Fatalf("absent session should be (nil, nil), got %v %v", absent, err)
	}
}

func TestMemoryStore_DuplicateSessionReturnsWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := s.Save(ctx, sampleOrder("ORD-2", "cs_1"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.OrderID != first.OrderID {
		t.Fatalf("duplicate session save must return the winner, got %s", second.OrderID)
	}

	all, _ := s.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(all))
	}
}

func TestMemoryStore_DuplicateOrderIDIsNoOp(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	got, err := s.Save(ctx, sampleOrder("ORD-1", "cs_other"))
	if err != nil {
		t.Fatalf("duplicate save: %v", err)
	}
	if got.SessionID != "cs_1" {
		t.Fatalf("duplicate id save must return the existing record, got %+v", got)
	}
}

func TestMemoryStore_ConcurrentSavesSameSession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const writers = 32
	results := make([]*Order, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := s.Save(ctx, sampleOrder(fmt.Sprintf("ORD-%d", i), "cs_race"))
			if err != nil {
				t.Errorf("save %d: %v", i, err)
				return
			}
			results[i] = o
		}(i)
	}
	wg.Wait()

	winner := results[0].OrderID
	for i, o := range results {
		if o == nil || o.OrderID != winner {
			t.Fatalf("writer %d observed %v, want %s", i, o, winner)
		}
	}
	all, _ := s.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("expected exactly one persisted order, got %d", len(all))
	}
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	s := NewMemoryStore()
	s.nowFunc = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	updated, err := s.UpdateStatus(ctx, "ORD-1", PaymentStatusRefunded)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PaymentStatus != PaymentStatusRefunded {
		t.Fatalf("status not updated: %+v", updated)
	}

	bySession, _ := s.GetBySessionID(ctx, "cs_1")
	if bySession.PaymentStatus != PaymentStatusRefunded {
		t.Fatal("session index not updated")
	}

	if _, err := s.UpdateStatus(ctx, "ORD-404", PaymentStatusRefunded); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := s.GetByID(ctx, "ORD-1")
	got.Items[0].Quantity = 99
	got.PaymentStatus = "MANGLED"

	again, _ := s.GetByID(ctx, "ORD-1")
	if again.Items[0].Quantity != 1 || again.PaymentStatus != PaymentStatusPaid {
		t.Fatal("store leaked internal state to callers")
	}
}
