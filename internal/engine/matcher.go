// Package engine implements the two rule-set backends: a linear scan
// baseline and a discrimination tree that prunes by shared constraint
// values. Both are immutable after construction and safe for concurrent
// queries without locking; hot reload is build-then-swap (see the
// snapshot package).
package engine

import (
	"fmt"

	"github.com/mkravets/dictmatch/internal/rules"
)

// Backend selects the rule-set implementation.
type Backend string

const (
	BackendLinear Backend = "linear"
	BackendTree   Backend = "tree"
)

// Match is one query result: the matching rule's identifier and its
// opaque payload. Result slices are freshly allocated per query and
// owned by the caller.
type Match struct {
	RuleID  string `json:"id"`
	Payload any    `json:"payload,omitempty"`
}

// Matcher is the uniform query surface over both backends.
type Matcher interface {
	// Query returns every rule satisfied by d. Linear results are in rule
	// insertion order; the tree backend sorts by insertion index, so both
	// backends return the same sequence for the same input.
	Query(d rules.Dictionary) []Match

	// FindFirst returns the first matching rule in insertion order.
	FindFirst(d rules.Dictionary) (Match, bool)

	// Len reports the number of rules in the set.
	Len() int
}

// Options tunes rule-set construction. The zero value is the strict
// default: match-all rules rejected, open key universe.
type Options struct {
	// AllowMatchAll accepts rules with zero constraints instead of failing
	// with ErrInvalidRule. Rules made only of explicit wildcards are always
	// accepted; they state the match-everything intent in the rule itself.
	AllowMatchAll bool

	// Domain, when set, closes the key universe: rules constraining
	// undeclared keys fail the build with ErrUnknownAttributeKey.
	Domain *rules.Domain
}

// New builds a rule set on the selected backend.
func New(backend Backend, rs []rules.Rule, opts Options) (Matcher, error) {
	switch backend {
	case BackendLinear:
		return NewLinear(rs, opts)
	case BackendTree:
		return NewTree(rs, opts)
	default:
		return nil, fmt.Errorf("unsupported matcher backend: %q", backend)
	}
}

// compile normalizes and validates rules for either backend. All errors
// surface here, before any query traffic; construction aborts on the
// first invalid rule and returns no partially built set.
func compile(rs []rules.Rule, opts Options) ([]rules.Rule, error) {
	out := make([]rules.Rule, 0, len(rs))
	for _, r := range rs {
		norm, err := r.Normalize()
		if err != nil {
			return nil, err
		}
		if len(norm.Constraints) == 0 && !opts.AllowMatchAll {
			return nil, fmt.Errorf("%w: rule %q has no constraints", rules.ErrInvalidRule, r.ID)
		}
		if opts.Domain != nil {
			if err := opts.Domain.CheckRule(norm); err != nil {
				return nil, err
			}
		}
		out = append(out, norm)
	}
	return out, nil
}
