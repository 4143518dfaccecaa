package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msavelyev/stocklive/internal/dbx"
)

const cacheKeyRefreshToken = "refresh_token"

// Cache is the local key-value store backing durable persistence mode.
// It holds at most the refresh token; access tokens are never written to
// disk.
type Cache struct {
	db dbx.DBTX
}

// NewCache binds a cache to the given database handle.
func NewCache(db dbx.DBTX) *Cache {
	return &Cache{db: db}
}

// EnsureSchema creates the metadata table if missing.
func (c *Cache) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	return nil
}

// Get returns the value for key, or an empty string when absent.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	var value string
	row := c.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read metadata: %w", err)
	}
	return value, nil
}

// Set upserts a key-value pair.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := c.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert metadata: %w", err)
	}
	return nil
}

// Clear wipes all cached metadata.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}
