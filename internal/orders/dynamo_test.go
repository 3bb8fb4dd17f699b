package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func newTestDynamoStore() (*DynamoStore, *mockDynamo) {
	mock := newMockDynamo()
	return NewDynamoStore(mock, "orders-test", "session-keys-test"), mock
}

func TestDynamoStore_SaveAndLookups(t *testing.T) {
	s, _ := newTestDynamoStore()
	ctx := context.Background()

	saved, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}

	byID, err := s.GetByID(ctx, "ORD-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.CustomerEmail != "buyer@example.com" || len(byID.Items) != 1 {
		t.Fatalf("order did not round-trip: %+v", byID)
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

func TestDynamoStore_DuplicateSessionReturnsWinner(t *testing.T) {
	s, mock := newTestDynamoStore()
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := s.Save(ctx, sampleOrder("ORD-2", "cs_1"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.OrderID != "ORD-1" {
		t.Fatalf("expected winner ORD-1, got %s", second.OrderID)
	}
	if mock.transactCalls != 2 {
		t.Fatalf("expected 2 transact attempts, got %d", mock.transactCalls)
	}
	if len(mock.tables["orders-test"]) != 1 {
		t.Fatalf("expected one persisted order, got %d", len(mock.tables["orders-test"]))
	}
}

func TestDynamoStore_DuplicateOrderIDReturnsExisting(t *testing.T) {
	s, mock := newTestDynamoStore()
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// same order id under a different session: the colliding record stands
	existing, err := s.Save(ctx, sampleOrder("ORD-1", "cs_2"))
	if err != nil {
		t.Fatalf("colliding save: %v", err)
	}
	if existing.SessionID != "cs_1" {
		t.Fatalf("expected the original record, got %+v", existing)
	}
	if len(mock.tables["orders-test"]) != 1 {
		t.Fatalf("expected one persisted order, got %d", len(mock.tables["orders-test"]))
	}
}

func TestDynamoStore_CancellationMatchedByErrorCode(t *testing.T) {
	s, mock := newTestDynamoStore()
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleOrder("ORD-1", "cs_1")); err != nil {
		t.Fatalf("first save: %v", err)
	}

	mock.failByErrorCode = true
	second, err := s.Save(ctx, sampleOrder("ORD-2", "cs_1"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.OrderID != "ORD-1" {
		t.Fatalf("expected winner ORD-1, got %s", second.OrderID)
	}

	if _, err := s.UpdateStatus(ctx, "ORD-404", PaymentStatusRefunded); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestDynamoStore_ConcurrentSavesSameSession(t *testing.T) {
	s, mock := newTestDynamoStore()
	ctx := context.Background()

	const writers = 16
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
	if len(mock.tables["orders-test"]) != 1 {
		t.Fatalf("expected one persisted order, got %d", len(mock.tables["orders-test"]))
	}
}

func TestDynamoStore_UpdateStatus(t *testing.T) {
	s, _ := newTestDynamoStore()
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

	if _, err := s.UpdateStatus(ctx, "ORD-404", PaymentStatusRefunded); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestDynamoStore_ListAll(t *testing.T) {
	s, _ := newTestDynamoStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Save(ctx, sampleOrder(fmt.Sprintf("ORD-%d", i), fmt.Sprintf("cs_%d", i))); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
}
