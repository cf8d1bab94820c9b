package idgen

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewIDIsUnique(t *testing.T) {
	gen := NewUUIDGenerator()
	seen := make(map[string]struct{}, 100)

	for i := 0; i < 100; i++ {
		id, err := gen.NewID()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("expected a valid uuid, got %q: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
