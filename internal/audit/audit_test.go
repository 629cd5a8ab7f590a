package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/caregate/caregate/internal/roles"
)

func TestMemoryLogRecordAndList(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()

	for i := 0; i < 3; i++ {
		err := log.Record(ctx, &Entry{
			Actor:      "9123456789",
			ActorRole:  roles.UserHead,
			Action:     "create",
			EntityType: "nurse",
			EntityID:   fmt.Sprintf("n%d", i),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := log.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	// Newest first.
	if entries[0].EntityID != "n2" {
		t.Errorf("first entry = %s, want n2", entries[0].EntityID)
	}
	for _, e := range entries {
		if e.ID == "" || e.OccurredAt.IsZero() || e.Outcome != OutcomeOK {
			t.Errorf("entry not filled: %+v", e)
		}
	}
}

func TestMemoryLogLimit(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	for i := 0; i < 5; i++ {
		log.Record(ctx, &Entry{Action: "delete", EntityType: "device"})
	}
	entries, _ := log.List(ctx, 2)
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}
