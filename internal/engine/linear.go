package engine

import (
	"github.com/mkravets/dictmatch/internal/rules"
)

// Linear stores rules as an ordered sequence and tests each one against
// the dictionary in turn, short-circuiting per rule on the first failing
// constraint. It is the correctness baseline the tree backend is checked
// against, and the faster choice for small rule sets.
type Linear struct {
	rules []rules.Rule
}

// NewLinear builds a linear rule set.
func NewLinear(rs []rules.Rule, opts Options) (*Linear, error) {
	compiled, err := compile(rs, opts)
	if err != nil {
		return nil, err
	}
	return &Linear{rules: compiled}, nil
}

// Query returns matches in rule insertion order.
func (l *Linear) Query(d rules.Dictionary) []Match {
	var out []Match
	for _, r := range l.rules {
		if r.Matches(d) {
			out = append(out, Match{RuleID: r.ID, Payload: r.Payload})
		}
	}
	return out
}

// FindFirst returns the first rule in insertion order satisfied by d.
func (l *Linear) FindFirst(d rules.Dictionary) (Match, bool) {
	for _, r := range l.rules {
		if r.Matches(d) {
			return Match{RuleID: r.ID, Payload: r.Payload}, true
		}
	}
	return Match{}, false
}

// Len reports the number of rules in the set.
func (l *Linear) Len() int { return len(l.rules) }
