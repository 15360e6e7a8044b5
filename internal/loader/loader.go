// Package loader parses external rule definitions (YAML or JSON files)
// into the construction input of the matching engine.
package loader

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mkravets/dictmatch/internal/rules"
)

// File is the top-level rule file layout.
//
//	rules:
//	  - id: mobile-us          # optional; a UUID is assigned when missing
//	    payload: { action: allow }
//	    when:
//	      method: GET          # single value
//	      region: [us, eu]     # membership
//	      plan: "*"            # explicit wildcard
type File struct {
	Rules []Entry `yaml:"rules" json:"rules"`
}

// Entry is one rule definition. Constraint values are scalars, lists of
// scalars, or the wildcard marker "*".
type Entry struct {
	ID      string                 `yaml:"id,omitempty" json:"id,omitempty"`
	Payload any                    `yaml:"payload,omitempty" json:"payload,omitempty"`
	When    map[rules.Key]ValueSet `yaml:"when" json:"when"`
}

// ValueSet decodes a scalar, a list of scalars, or "*".
type ValueSet struct {
	Values []rules.Value
	Any    bool
}

// Wildcard is the marker accepted in rule files for "any value".
const Wildcard = "*"

// UnmarshalYAML accepts `GET`, `[us, eu]`, or `"*"`.
func (vs *ValueSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var vals []rules.Value
		if err := node.Decode(&vals); err != nil {
			return err
		}
		vs.Values = vals
		return nil
	}

	var v rules.Value
	if err := node.Decode(&v); err != nil {
		return err
	}
	if v.Equal(rules.String(Wildcard)) {
		vs.Any = true
		return nil
	}
	vs.Values = []rules.Value{v}
	return nil
}

// LoadFile reads and parses a rule file. yaml.v3 accepts JSON input, so
// one path serves both formats.
func LoadFile(path string) ([]rules.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(data)
}

// Parse converts raw file contents into normalized-input rules. It does
// not validate constraints; that happens when the rule set is built.
func Parse(data []byte) ([]rules.Rule, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	out := make([]rules.Rule, 0, len(f.Rules))
	for _, e := range f.Rules {
		r := rules.Rule{ID: e.ID, Payload: e.Payload}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		for _, key := range sortedKeys(e.When) {
			vs := e.When[key]
			if vs.Any {
				r.Constraints = append(r.Constraints, rules.Any(key))
				continue
			}
			r.Constraints = append(r.Constraints, rules.OneOf(key, vs.Values...))
		}
		out = append(out, r)
	}
	return out, nil
}

func sortedKeys(m map[rules.Key]ValueSet) []rules.Key {
	keys := make([]rules.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
