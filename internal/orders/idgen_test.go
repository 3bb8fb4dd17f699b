package orders

import (
	"strings"
	"testing"
	"time"
)

func TestTimestampGenerator_Format(t *testing.T) {
	g := NewTimestampGenerator()
	g.nowFunc = func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }

	id, err := g.NewOrderID()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(id, "ORD-20260830-") {
		t.Fatalf("unexpected id format %q", id)
	}
	if len(id) != len("ORD-20260830-")+8 {
		t.Fatalf("unexpected suffix length in %q", id)
	}
}

func TestTimestampGenerator_Unique(t *testing.T) {
	g := NewTimestampGenerator()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id, err := g.NewOrderID()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestUUIDGenerator(t *testing.T) {
	id, err := UUIDGenerator{}.NewOrderID()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(id, "ORD-") || len(id) != 40 {
		t.Fatalf("unexpected id %q", id)
	}
}
