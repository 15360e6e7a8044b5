// Package rules defines the attribute domain for dictionary matching:
// typed attribute values, dictionaries, rules built from per-key
// constraints, and the validation performed before a rule set is built.
package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Value is a closed tagged union over the scalar types an attribute may
// take. Values are comparable and usable as map keys; comparisons across
// kinds are always false (no implicit coercion).
type Value struct {
	kind Kind
	str  string
	num  int64
	flag bool
}

// String builds a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int builds an integer Value.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Bool builds a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Kind returns the value's concrete type.
func (v Value) Kind() Kind { return v.kind }

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool { return v == other }

// String renders the value for logs and table output.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return v.str
	}
}

// canonical renders the value injectively for fingerprints: a kind tag
// plus, for strings, a quoted form so no content can imitate another
// kind or smuggle an encoding separator.
func (v Value) canonical() string {
	switch v.kind {
	case KindInt:
		return "i" + strconv.FormatInt(v.num, 10)
	case KindBool:
		return "b" + strconv.FormatBool(v.flag)
	default:
		return "s" + strconv.Quote(v.str)
	}
}

// FromScalar converts a decoded JSON/YAML scalar into a Value.
// JSON numbers arrive as float64; only integral ones are accepted.
func FromScalar(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return Value{}, fmt.Errorf("non-integer number %v is not a valid attribute value", x)
		}
		return Int(int64(x)), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q is not a valid attribute value", x.String())
		}
		return Int(n), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute value type %T", raw)
	}
}

// MarshalJSON encodes the value as its native scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON decodes a native scalar into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromScalar(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML encodes the value as its native scalar.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindInt:
		return v.num, nil
	case KindBool:
		return v.flag, nil
	default:
		return v.str, nil
	}
}

// UnmarshalYAML decodes a scalar node into a Value.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromScalar(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
