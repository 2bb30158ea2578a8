// Package suppression maintains the global opt-out list and its read-mostly
// in-process cache. Suppression is append-only: once an address is listed it
// is excluded from every future selection, regardless of campaign.
package suppression

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one suppressed address with its provenance.
type Entry struct {
	Email     string    `json:"email"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository persists suppression entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a suppression repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSuppressionSet loads the full suppression set, lowercased.
func (r *Repository) GetSuppressionSet(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM suppression_entries`)
	if err != nil {
		return nil, fmt.Errorf("load suppression set: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan suppression entry: %w", err)
		}
		set[strings.ToLower(email)] = struct{}{}
	}
	return set, rows.Err()
}

// Add appends an entry. Re-adding an existing address is a no-op, which keeps
// the operation idempotent for repeated unsubscribe replies.
func (r *Repository) Add(ctx context.Context, email, reason string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO suppression_entries (email, reason, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (email) DO NOTHING`,
		strings.ToLower(strings.TrimSpace(email)), reason)
	if err != nil {
		return fmt.Errorf("add suppression entry: %w", err)
	}
	return nil
}

// IsSuppressed is the authoritative, cache-bypassing lookup.
func (r *Repository) IsSuppressed(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppression_entries WHERE email = $1)`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check suppression entry: %w", err)
	}
	return exists, nil
}

// List returns all entries, newest first.
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT email, reason, created_at
		FROM suppression_entries
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list suppression entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Email, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan suppression entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
