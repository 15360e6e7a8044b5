package rules

import (
	"errors"
	"testing"
)

func TestRule_Matches(t *testing.T) {
	r := Rule{ID: "r", Constraints: []Constraint{
		Eq("method", String("GET")),
		OneOf("region", String("us"), String("eu")),
		Any("plan"),
	}}

	tests := []struct {
		name string
		dict Dictionary
		want bool
	}{
		{"all satisfied", Dictionary{"method": String("GET"), "region": String("eu")}, true},
		{"wildcard key present", Dictionary{"method": String("GET"), "region": String("us"), "plan": String("pro")}, true},
		{"wrong membership value", Dictionary{"method": String("GET"), "region": String("apac")}, false},
		{"missing constrained key", Dictionary{"method": String("GET")}, false},
		{"wrong kind", Dictionary{"method": Int(1), "region": String("us")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Matches(tt.dict); got != tt.want {
				t.Fatalf("Matches(%v) = %v, want %v", tt.dict, got, tt.want)
			}
		})
	}
}

func TestRule_NormalizeMerges(t *testing.T) {
	r := Rule{ID: "r", Constraints: []Constraint{
		OneOf("method", String("GET"), String("POST"), String("PUT")),
		OneOf("method", String("POST"), String("GET")),
		Eq("region", String("us")),
	}}

	norm, err := r.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(norm.Constraints) != 2 {
		t.Fatalf("got %d constraints, want 2", len(norm.Constraints))
	}
	method := norm.Constraints[0]
	if method.Key != "method" || len(method.Values) != 2 {
		t.Fatalf("merged method constraint = %+v, want GET|POST", method)
	}
	if !method.Allows(String("GET")) || !method.Allows(String("POST")) || method.Allows(String("PUT")) {
		t.Fatalf("merged method constraint allows wrong values: %+v", method)
	}
}

func TestRule_NormalizeContradiction(t *testing.T) {
	r := Rule{ID: "r", Constraints: []Constraint{
		Eq("method", String("GET")),
		Eq("method", String("POST")),
	}}
	if _, err := r.Normalize(); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("Normalize error = %v, want ErrInvalidRule", err)
	}
}

func TestRule_NormalizeWildcardIdentity(t *testing.T) {
	r := Rule{ID: "r", Constraints: []Constraint{
		Any("method"),
		Eq("method", String("GET")),
	}}
	norm, err := r.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(norm.Constraints) != 1 || norm.Constraints[0].Any {
		t.Fatalf("any AND eq should collapse to eq, got %+v", norm.Constraints)
	}
	if !norm.Constraints[0].Allows(String("GET")) {
		t.Fatal("collapsed constraint lost its value")
	}
}

func TestRule_NormalizeEmptyValueSet(t *testing.T) {
	r := Rule{ID: "r", Constraints: []Constraint{{Key: "method"}}}
	if _, err := r.Normalize(); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("Normalize error = %v, want ErrInvalidRule", err)
	}
}

func TestRule_Concrete(t *testing.T) {
	allWild := Rule{ID: "w", Constraints: []Constraint{Any("a"), Any("b")}}
	if allWild.Concrete() {
		t.Fatal("all-wildcard rule reported as concrete")
	}
	if !allWild.Matches(Dictionary{"a": Int(1)}) || !allWild.Matches(Dictionary{}) {
		t.Fatal("all-wildcard rule must match every dictionary")
	}
}

func TestRule_CanonicalStable(t *testing.T) {
	a := Rule{ID: "r", Constraints: []Constraint{
		OneOf("method", String("GET"), String("POST")),
		Eq("region", String("us")),
	}}
	b := Rule{ID: "r", Constraints: []Constraint{
		Eq("region", String("us")),
		OneOf("method", String("POST"), String("GET")),
	}}
	if a.Canonical() != b.Canonical() {
		t.Fatalf("canonical forms differ:\n%s\n%s", a.Canonical(), b.Canonical())
	}
}

func TestRule_CanonicalDistinguishesKinds(t *testing.T) {
	intRule := Rule{ID: "r", Constraints: []Constraint{Eq("k", Int(1))}}
	strRule := Rule{ID: "r", Constraints: []Constraint{Eq("k", String("1"))}}
	if intRule.Canonical() == strRule.Canonical() {
		t.Fatalf("Int(1) and String(\"1\") share canonical form %q", intRule.Canonical())
	}

	boolRule := Rule{ID: "r", Constraints: []Constraint{Eq("k", Bool(true))}}
	strTrue := Rule{ID: "r", Constraints: []Constraint{Eq("k", String("true"))}}
	if boolRule.Canonical() == strTrue.Canonical() {
		t.Fatalf("Bool(true) and String(\"true\") share canonical form %q", boolRule.Canonical())
	}

	// A value embedding the list separator must not imitate a two-value set.
	joined := Rule{ID: "r", Constraints: []Constraint{Eq("k", String("a\"|s\"b"))}}
	pair := Rule{ID: "r", Constraints: []Constraint{OneOf("k", String("a"), String("b"))}}
	if joined.Canonical() == pair.Canonical() {
		t.Fatalf("embedded separator forged canonical form %q", pair.Canonical())
	}
}

func TestDomain_Checks(t *testing.T) {
	d := NewDomain("method", "region")

	ok := Rule{ID: "ok", Constraints: []Constraint{Eq("method", String("GET"))}}
	if err := d.CheckRule(ok); err != nil {
		t.Fatalf("CheckRule failed: %v", err)
	}

	bad := Rule{ID: "bad", Constraints: []Constraint{Eq("plan", String("pro"))}}
	if err := d.CheckRule(bad); !errors.Is(err, ErrUnknownAttributeKey) {
		t.Fatalf("CheckRule error = %v, want ErrUnknownAttributeKey", err)
	}

	if err := d.CheckDictionary(Dictionary{"method": String("GET")}); err != nil {
		t.Fatalf("CheckDictionary failed: %v", err)
	}
	if err := d.CheckDictionary(Dictionary{"tenant": String("acme")}); !errors.Is(err, ErrUnknownAttributeKey) {
		t.Fatalf("CheckDictionary error = %v, want ErrUnknownAttributeKey", err)
	}
}
