package rules

import (
	"fmt"
	"sort"
)

// Domain is an optional closed universe of attribute keys. When a rule
// set is built with a Domain, rules referencing undeclared keys fail
// fast at build time. Queries never fail: dictionary validation is a
// separate helper for callers that want to reject malformed input
// upstream (the API layer does).
type Domain struct {
	keys map[Key]struct{}
}

// NewDomain declares a closed key universe.
func NewDomain(keys ...Key) *Domain {
	d := &Domain{keys: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		d.keys[k] = struct{}{}
	}
	return d
}

// Has reports whether the key belongs to the domain.
func (d *Domain) Has(k Key) bool {
	_, ok := d.keys[k]
	return ok
}

// Keys lists the declared keys in sorted order.
func (d *Domain) Keys() []Key {
	out := make([]Key, 0, len(d.keys))
	for k := range d.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckRule verifies that every constrained key is declared.
func (d *Domain) CheckRule(r Rule) error {
	for _, c := range r.Constraints {
		if !d.Has(c.Key) {
			return fmt.Errorf("%w: rule %q constrains undeclared key %q", ErrUnknownAttributeKey, r.ID, c.Key)
		}
	}
	return nil
}

// CheckDictionary verifies that every dictionary key is declared.
func (d *Domain) CheckDictionary(dict Dictionary) error {
	for k := range dict {
		if !d.Has(k) {
			return fmt.Errorf("%w: dictionary references undeclared key %q", ErrUnknownAttributeKey, k)
		}
	}
	return nil
}
