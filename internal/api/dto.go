package api

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mkravets/dictmatch/internal/rules"
)

// wildcard is the marker accepted in rule JSON for "any value",
// matching the rule-file format.
const wildcard = "*"

// ruleRequest is the wire form of a rule definition.
type ruleRequest struct {
	ID      string         `json:"id,omitempty"`
	Payload any            `json:"payload,omitempty"`
	When    map[string]any `json:"when"`
}

// matchRequest is the wire form of a query.
type matchRequest struct {
	Dictionary map[string]any `json:"dictionary"`
	First      bool           `json:"first,omitempty"`
}

// toRule converts a request into a rule, assigning a UUID when the ID is
// missing. Constraint keys are processed in sorted order so conversion
// is deterministic.
func (rr ruleRequest) toRule() (rules.Rule, error) {
	r := rules.Rule{ID: rr.ID, Payload: rr.Payload}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	keys := make([]string, 0, len(rr.When))
	for k := range rr.When {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c, err := toConstraint(rules.Key(k), rr.When[k])
		if err != nil {
			return rules.Rule{}, err
		}
		r.Constraints = append(r.Constraints, c)
	}
	return r, nil
}

func toConstraint(key rules.Key, raw any) (rules.Constraint, error) {
	if s, ok := raw.(string); ok && s == wildcard {
		return rules.Any(key), nil
	}

	if list, ok := raw.([]any); ok {
		vals := make([]rules.Value, 0, len(list))
		for _, item := range list {
			v, err := rules.FromScalar(item)
			if err != nil {
				return rules.Constraint{}, fmt.Errorf("constraint %q: %w", key, err)
			}
			vals = append(vals, v)
		}
		return rules.OneOf(key, vals...), nil
	}

	v, err := rules.FromScalar(raw)
	if err != nil {
		return rules.Constraint{}, fmt.Errorf("constraint %q: %w", key, err)
	}
	return rules.Eq(key, v), nil
}

func toDictionary(raw map[string]any) (rules.Dictionary, error) {
	d := make(rules.Dictionary, len(raw))
	for k, item := range raw {
		v, err := rules.FromScalar(item)
		if err != nil {
			return nil, fmt.Errorf("dictionary key %q: %w", k, err)
		}
		d[rules.Key(k)] = v
	}
	return d, nil
}
