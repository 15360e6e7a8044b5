// Package snapshot holds the currently serving rule set. Rule sets are
// immutable once built; reloads build a complete new snapshot and swap
// it atomically, so concurrent queries never observe a partial rebuild.
package snapshot

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/rules"
)

// Snapshot is one immutable built rule set plus its identity.
type Snapshot struct {
	ETag      string
	Backend   engine.Backend
	Matcher   engine.Matcher
	RuleCount int
	UpdatedAt time.Time
}

var current atomic.Pointer[Snapshot]

// Load returns the serving snapshot. Before the first Update it returns
// an empty rule set that matches nothing.
func Load() *Snapshot {
	if s := current.Load(); s != nil {
		return s
	}
	empty, _ := engine.NewLinear(nil, engine.Options{})
	return &Snapshot{
		ETag:      `W/"empty"`,
		Backend:   engine.BackendLinear,
		Matcher:   empty,
		UpdatedAt: time.Now().UTC(),
	}
}

// Update atomically swaps the serving snapshot.
func Update(s *Snapshot) { current.Store(s) }

// Build compiles rules into a new snapshot on the given backend. The
// ETag is an xxhash64 digest of the canonical rule serialization, so it
// changes exactly when the rule definitions do.
func Build(rs []rules.Rule, backend engine.Backend, opts engine.Options, cache bool) (*Snapshot, error) {
	m, err := engine.New(backend, rs, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s rule set: %w", backend, err)
	}
	if cache {
		m = engine.NewCached(m)
	}

	digest := xxhash.New()
	for _, r := range rs {
		_, _ = digest.WriteString(r.Canonical())
		_, _ = digest.Write([]byte{0})
	}

	return &Snapshot{
		ETag:      `W/"` + strconv.FormatUint(digest.Sum64(), 16) + `"`,
		Backend:   backend,
		Matcher:   m,
		RuleCount: len(rs),
		UpdatedAt: time.Now().UTC(),
	}, nil
}
