package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-builder/pkg/storage"
)

// PostgresMedium keeps keys in a kv_entries table. Set is a single upsert
// statement, so readers never observe a partial value.
type PostgresMedium struct {
	db *sqlx.DB
}

// NewPostgresMedium constructs the medium.
func NewPostgresMedium(db *sqlx.DB) *PostgresMedium {
	return &PostgresMedium{db: db}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (p *PostgresMedium) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create kv_entries: %w", err)
	}
	return nil
}

// Get loads the value stored under key.
func (p *PostgresMedium) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_entries WHERE key = $1`
	var value []byte
	if err := p.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("select kv entry %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value under key.
func (p *PostgresMedium) Set(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert kv entry %s: %w", key, err)
	}
	return nil
}
