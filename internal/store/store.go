// Package store persists rule definitions behind a small interface with
// in-memory and PostgreSQL implementations. The store holds rule
// *definitions*; built rule sets live in the snapshot package.
package store

import (
	"context"
	"errors"

	"github.com/mkravets/dictmatch/internal/rules"
)

// ErrRuleNotFound is returned by GetRule for unknown IDs.
var ErrRuleNotFound = errors.New("rule not found")

// Store is the persistence interface for rule definitions.
// Implementations must be safe for concurrent use.
//
// ListRules returns rules in insertion order: the linear backend's match
// order, and the rule precedence for FindFirst, depend on it.
type Store interface {
	// ListRules returns every stored rule in insertion order.
	ListRules(ctx context.Context) ([]rules.Rule, error)

	// GetRule returns one rule by ID, or ErrRuleNotFound.
	GetRule(ctx context.Context, id string) (*rules.Rule, error)

	// UpsertRule inserts or replaces a rule by ID. Replacing keeps the
	// rule's original position.
	UpsertRule(ctx context.Context, r rules.Rule) error

	// DeleteRule removes a rule by ID. Deleting an unknown ID is a no-op.
	DeleteRule(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
