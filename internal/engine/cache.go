package engine

import (
	"sync"

	"github.com/mkravets/dictmatch/internal/rules"
)

// Cached memoizes Query results keyed by the dictionary's canonical
// fingerprint. Safe because built matchers are immutable and queries are
// pure; a rebuilt rule set gets a fresh wrapper (build-then-swap).
// Expected value type in the map is []Match.
type Cached struct {
	inner   Matcher
	results sync.Map
}

// NewCached wraps m with a query cache.
func NewCached(m Matcher) *Cached {
	return &Cached{inner: m}
}

// Query returns a fresh copy per call; cached slices are never aliased
// to callers.
func (c *Cached) Query(d rules.Dictionary) []Match {
	key := d.Fingerprint()
	if hit, ok := c.results.Load(key); ok {
		return cloneMatches(hit.([]Match))
	}
	computed := c.inner.Query(d)
	c.results.Store(key, computed)
	return cloneMatches(computed)
}

// FindFirst delegates to the wrapped matcher.
func (c *Cached) FindFirst(d rules.Dictionary) (Match, bool) {
	return c.inner.FindFirst(d)
}

// Len reports the number of rules in the wrapped set.
func (c *Cached) Len() int { return c.inner.Len() }

func cloneMatches(ms []Match) []Match {
	if ms == nil {
		return nil
	}
	out := make([]Match, len(ms))
	copy(out, ms)
	return out
}
