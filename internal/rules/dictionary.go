package rules

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key names one dimension of a dictionary ("method", "region", ...).
type Key string

// Dictionary is the attribute/value mapping of the entity being matched.
// Dictionaries are transient, caller-owned, read-only query inputs; a
// missing key fails any rule that constrains it.
type Dictionary map[Key]Value

// Keys returns the dictionary's keys in sorted order.
func (d Dictionary) Keys() []Key {
	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Fingerprint returns a canonical encoding of the dictionary, stable
// across map iteration order and injective: distinct dictionaries never
// share a fingerprint. Keys are quoted and values kind-tagged, so a
// value embedding the separators cannot forge another dictionary's
// encoding. Used as the query-cache key.
func (d Dictionary) Fingerprint() string {
	var sb strings.Builder
	for i, k := range d.Keys() {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Quote(string(k)))
		sb.WriteByte('=')
		sb.WriteString(d[k].canonical())
	}
	return sb.String()
}

// Hash returns an xxhash64 digest of the canonical encoding, cheap
// enough for per-query telemetry.
func (d Dictionary) Hash() uint64 {
	return xxhash.Sum64String(d.Fingerprint())
}
