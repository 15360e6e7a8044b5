package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mkravets/dictmatch/internal/rules"
)

func TestMemoryStore_UpsertAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	r := rules.Rule{
		ID:      "mobile-us",
		Payload: map[string]any{"action": "allow"},
		Constraints: []rules.Constraint{
			rules.Eq("method", rules.String("GET")),
			rules.OneOf("region", rules.String("us"), rules.String("eu")),
		},
	}
	if err := s.UpsertRule(ctx, r); err != nil {
		t.Fatalf("UpsertRule failed: %v", err)
	}

	got, err := s.GetRule(ctx, "mobile-us")
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if got.ID != "mobile-us" || len(got.Constraints) != 2 {
		t.Fatalf("GetRule returned %+v", got)
	}

	if _, err := s.GetRule(ctx, "missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("GetRule(missing) error = %v, want ErrRuleNotFound", err)
	}
}

func TestMemoryStore_ListPreservesInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		r := rules.Rule{ID: id, Constraints: []rules.Constraint{rules.Eq("k", rules.String(id))}}
		if err := s.UpsertRule(ctx, r); err != nil {
			t.Fatalf("UpsertRule(%s) failed: %v", id, err)
		}
	}

	// Replacing an existing rule must not move it.
	if err := s.UpsertRule(ctx, rules.Rule{ID: "a", Constraints: []rules.Constraint{rules.Eq("k", rules.String("a2"))}}); err != nil {
		t.Fatalf("UpsertRule(a) failed: %v", err)
	}

	listed, err := s.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("got %d rules, want 3", len(listed))
	}
	for i, id := range ids {
		if listed[i].ID != id {
			t.Fatalf("position %d = %q, want %q", i, listed[i].ID, id)
		}
	}
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	r := rules.Rule{ID: "gone", Constraints: []rules.Constraint{rules.Eq("k", rules.String("v"))}}
	if err := s.UpsertRule(ctx, r); err != nil {
		t.Fatalf("UpsertRule failed: %v", err)
	}
	if err := s.DeleteRule(ctx, "gone"); err != nil {
		t.Fatalf("DeleteRule failed: %v", err)
	}
	if err := s.DeleteRule(ctx, "gone"); err != nil {
		t.Fatalf("second DeleteRule failed: %v", err)
	}

	listed, err := s.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("got %d rules after delete, want 0", len(listed))
	}
}
