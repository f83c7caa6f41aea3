package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	// snapshotKey is the single well-known slot the cart lives under.
	snapshotKey = "cart"
)

// PostgresSlot stores the snapshot as one keyed row, overwritten in full on
// every save.
type PostgresSlot struct {
	db *sql.DB
}

func NewPostgresSlot(db *sql.DB) *PostgresSlot {
	return &PostgresSlot{db: db}
}

// EnsureSchema creates the snapshot table if it is missing.
func (s *PostgresSlot) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS cart_snapshots (
				key        TEXT PRIMARY KEY,
				items      JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
}

func (s *PostgresSlot) Load(ctx context.Context) ([]LineItem, bool, error) {
	var raw []byte
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT items
			FROM cart_snapshots
			WHERE key = $1
		`, snapshotKey).Scan(&raw)
	})
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode cart snapshot row: %w", err)
	}
	return items, true, nil
}

func (s *PostgresSlot) Save(ctx context.Context, items []LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cart_snapshots (key, items, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE
			SET items = EXCLUDED.items, updated_at = now()
		`, snapshotKey, raw)
		return err
	})
}

func (s *PostgresSlot) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
