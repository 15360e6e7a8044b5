package engine

import (
	"testing"

	"github.com/mkravets/dictmatch/internal/grid"
	"github.com/mkravets/dictmatch/internal/rules"
)

func TestTree_ConcreteScenarios(t *testing.T) {
	m, err := NewTree(scenarioRules(), Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	got := matchIDs(m.Query(rules.Dictionary{"method": rules.String("GET"), "region": rules.String("eu")}))
	if !sameIDs(got, "1", "3") {
		t.Fatalf("Query(GET/eu) = %v, want [1 3]", got)
	}

	got = matchIDs(m.Query(rules.Dictionary{"method": rules.String("POST")}))
	if !sameIDs(got, "3") {
		t.Fatalf("Query(POST) = %v, want [3]", got)
	}
}

func TestTree_EmptyRuleSet(t *testing.T) {
	m, err := NewTree(nil, Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	if got := m.Query(rules.Dictionary{"method": rules.String("GET")}); len(got) != 0 {
		t.Fatalf("empty set Query = %v, want empty", got)
	}
	if _, ok := m.FindFirst(rules.Dictionary{}); ok {
		t.Fatal("empty set FindFirst reported a match")
	}
}

func TestTree_WildcardPropagation(t *testing.T) {
	// A rule unconstrained on a key must match whether or not the
	// dictionary specifies that key, and regardless of its value.
	rs := []rules.Rule{
		{ID: "region-only", Constraints: []rules.Constraint{rules.Eq("region", rules.String("us"))}},
		{ID: "pinned", Constraints: []rules.Constraint{
			rules.Eq("region", rules.String("us")),
			rules.Eq("method", rules.String("GET")),
		}},
	}
	m, err := NewTree(rs, Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	dicts := []rules.Dictionary{
		{"region": rules.String("us")},
		{"region": rules.String("us"), "method": rules.String("GET")},
		{"region": rules.String("us"), "method": rules.String("DELETE")},
	}
	for _, d := range dicts {
		got := matchIDs(m.Query(d))
		found := false
		for _, id := range got {
			if id == "region-only" {
				found = true
			}
		}
		if !found {
			t.Fatalf("Query(%v) = %v, missing region-only", d, got)
		}
	}
}

func TestTree_UnseenDictionaryValue(t *testing.T) {
	// A value no rule constrains has no interned code; only the wildcard
	// branch is viable and only wildcard-compatible rules may match.
	rs := []rules.Rule{
		{ID: "get", Constraints: []rules.Constraint{rules.Eq("method", rules.String("GET"))}},
		{ID: "us", Constraints: []rules.Constraint{rules.Eq("region", rules.String("us"))}},
	}
	m, err := NewTree(rs, Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	got := matchIDs(m.Query(rules.Dictionary{
		"method": rules.String("PATCH"),
		"region": rules.String("us"),
	}))
	if !sameIDs(got, "us") {
		t.Fatalf("Query(PATCH/us) = %v, want [us]", got)
	}
}

func TestTree_MembershipConstraintAcrossBranches(t *testing.T) {
	rs := []rules.Rule{
		{ID: "multi", Constraints: []rules.Constraint{
			rules.OneOf("method", rules.String("GET"), rules.String("HEAD")),
			rules.Eq("region", rules.String("us")),
		}},
	}
	m, err := NewTree(rs, Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	for _, method := range []string{"GET", "HEAD"} {
		got := matchIDs(m.Query(rules.Dictionary{
			"method": rules.String(method),
			"region": rules.String("us"),
		}))
		if !sameIDs(got, "multi") {
			t.Fatalf("Query(%s/us) = %v, want [multi]", method, got)
		}
	}

	// Partial path shared with a matching branch must not leak through:
	// the leaf re-verifies the full constraint set.
	if got := m.Query(rules.Dictionary{"method": rules.String("GET")}); len(got) != 0 {
		t.Fatalf("Query(GET, no region) = %v, want empty", matchIDs(got))
	}
}

func TestTree_DeterministicConstruction(t *testing.T) {
	rs := grid.Rules(5)

	first, err := NewTree(rs, Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	second, err := NewTree(rs, Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}

	if len(first.nodes) != len(second.nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(first.nodes), len(second.nodes))
	}
	if len(first.keys) != len(second.keys) {
		t.Fatalf("key orders differ: %v vs %v", first.keys, second.keys)
	}
	for i := range first.keys {
		if first.keys[i] != second.keys[i] {
			t.Fatalf("key orders differ: %v vs %v", first.keys, second.keys)
		}
	}
}

func TestTree_PrunesBranches(t *testing.T) {
	// The no-match dictionary must not visit every rule: all its values
	// are unseen, so traversal stays on the wildcard spine.
	m, err := NewTree(grid.Rules(10), Options{})
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	if got := m.Query(grid.NoMatch()); len(got) != 0 {
		t.Fatalf("NoMatch dictionary returned %d matches", len(got))
	}
}
