package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors returned during rule normalization and rule-set builds.
var (
	// ErrInvalidRule marks a structurally invalid rule: zero constraints
	// (unless the build explicitly allows match-all rules) or contradictory
	// constraints on the same key.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownAttributeKey marks a rule or dictionary referencing a key
	// outside a declared closed domain.
	ErrUnknownAttributeKey = errors.New("unknown attribute key")
)

// Constraint binds one attribute key to a set of acceptable values, or is
// an explicit wildcard that accepts any value (including a missing key).
type Constraint struct {
	Key    Key     `json:"key" yaml:"key"`
	Values []Value `json:"values,omitempty" yaml:"values,omitempty"`
	Any    bool    `json:"any,omitempty" yaml:"any,omitempty"`
}

// Eq builds a single-value equality constraint.
func Eq(key Key, v Value) Constraint {
	return Constraint{Key: key, Values: []Value{v}}
}

// OneOf builds a membership constraint.
func OneOf(key Key, vs ...Value) Constraint {
	return Constraint{Key: key, Values: vs}
}

// Any builds an explicit wildcard constraint on key.
func Any(key Key) Constraint {
	return Constraint{Key: key, Any: true}
}

// Allows reports whether the constraint accepts the given value.
func (c Constraint) Allows(v Value) bool {
	if c.Any {
		return true
	}
	for _, allowed := range c.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// Rule is an immutable conjunction of per-key constraints plus an opaque
// payload. A normalized rule constrains each key at most once.
type Rule struct {
	ID          string       `json:"id" yaml:"id"`
	Payload     any          `json:"payload,omitempty" yaml:"payload,omitempty"`
	Constraints []Constraint `json:"constraints" yaml:"constraints"`
}

// Matches reports whether every constraint is satisfied by d. A wildcard
// constraint is satisfied regardless of whether d specifies the key.
func (r Rule) Matches(d Dictionary) bool {
	for _, c := range r.Constraints {
		if c.Any {
			continue
		}
		v, ok := d[c.Key]
		if !ok || !c.Allows(v) {
			return false
		}
	}
	return true
}

// Normalize merges duplicate constraints on the same key by intersecting
// their value sets, preserving first-seen key order. An empty intersection
// is a contradiction and fails with ErrInvalidRule. Wildcards intersect
// as the identity: any AND X = X.
func (r Rule) Normalize() (Rule, error) {
	order := make([]Key, 0, len(r.Constraints))
	merged := make(map[Key]Constraint, len(r.Constraints))

	for _, c := range r.Constraints {
		if !c.Any && len(c.Values) == 0 {
			return Rule{}, fmt.Errorf("%w: rule %q constraint on %q has no values (use an explicit wildcard for \"any\")",
				ErrInvalidRule, r.ID, c.Key)
		}
		prev, seen := merged[c.Key]
		if !seen {
			order = append(order, c.Key)
			merged[c.Key] = c
			continue
		}
		combined, err := intersect(prev, c)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: rule %q has contradictory constraints on %q", ErrInvalidRule, r.ID, c.Key)
		}
		merged[c.Key] = combined
	}

	out := Rule{ID: r.ID, Payload: r.Payload, Constraints: make([]Constraint, 0, len(order))}
	for _, k := range order {
		out.Constraints = append(out.Constraints, merged[k])
	}
	return out, nil
}

func intersect(a, b Constraint) (Constraint, error) {
	if a.Any {
		return b, nil
	}
	if b.Any {
		return a, nil
	}
	var common []Value
	for _, v := range a.Values {
		if b.Allows(v) {
			common = append(common, v)
		}
	}
	if len(common) == 0 {
		return Constraint{}, errors.New("empty intersection")
	}
	return Constraint{Key: a.Key, Values: common}, nil
}

// Concrete reports whether the rule carries at least one non-wildcard
// constraint. A rule that is all wildcards matches every dictionary.
func (r Rule) Concrete() bool {
	for _, c := range r.Constraints {
		if !c.Any {
			return true
		}
	}
	return false
}

// Canonical renders the rule in a stable textual form used for rule-set
// fingerprints: constraints sorted, values within a constraint sorted,
// payload as JSON. Keys and the ID are quoted and values kind-tagged,
// so the encoding is injective: any edit to the rule, including a
// value changing kind but not text, changes its canonical form.
func (r Rule) Canonical() string {
	parts := make([]string, 0, len(r.Constraints))
	for _, c := range r.Constraints {
		key := strconv.Quote(string(c.Key))
		if c.Any {
			parts = append(parts, key+":*")
			continue
		}
		vals := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			vals = append(vals, v.canonical())
		}
		sort.Strings(vals)
		parts = append(parts, key+":"+strings.Join(vals, "|"))
	}
	sort.Strings(parts)
	payload, _ := json.Marshal(r.Payload)
	return strconv.Quote(r.ID) + "{" + strings.Join(parts, ",") + "}" + string(payload)
}
