package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkravets/dictmatch/internal/rules"
)

// PostgresStore persists rules in a single table, constraints and
// payload as JSONB. Insertion order is the serial position column.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS match_rules (
//	    id          TEXT PRIMARY KEY,
//	    position    BIGSERIAL,
//	    constraints JSONB NOT NULL,
//	    payload     JSONB
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListRules returns every rule ordered by insertion position.
func (p *PostgresStore) ListRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, constraints, payload FROM match_rules ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRule returns one rule by ID.
func (p *PostgresStore) GetRule(ctx context.Context, id string) (*rules.Rule, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, constraints, payload FROM match_rules WHERE id = $1`, id)
	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &r, nil
}

// UpsertRule inserts or replaces a rule. The position column is only
// assigned on insert, so replaced rules keep their ordering.
func (p *PostgresStore) UpsertRule(ctx context.Context, r rules.Rule) error {
	constraints, err := json.Marshal(r.Constraints)
	if err != nil {
		return fmt.Errorf("failed to encode constraints: %w", err)
	}
	var payload []byte
	if r.Payload != nil {
		payload, err = json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO match_rules (id, constraints, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET constraints = $2, payload = $3`,
		r.ID, constraints, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert rule %q: %w", r.ID, err)
	}
	return nil
}

// DeleteRule removes a rule; unknown IDs are a no-op.
func (p *PostgresStore) DeleteRule(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM match_rules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete rule %q: %w", id, err)
	}
	return nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanRule(row pgx.Row) (rules.Rule, error) {
	var (
		r           rules.Rule
		constraints []byte
		payload     []byte
	)
	if err := row.Scan(&r.ID, &constraints, &payload); err != nil {
		return rules.Rule{}, err
	}
	if err := json.Unmarshal(constraints, &r.Constraints); err != nil {
		return rules.Rule{}, fmt.Errorf("corrupt constraints for rule %q: %w", r.ID, err)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return rules.Rule{}, fmt.Errorf("corrupt payload for rule %q: %w", r.ID, err)
		}
	}
	return r, nil
}
