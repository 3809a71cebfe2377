package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"worldatlas/internal/util"
	"worldatlas/models"
)

// SQLiteCacheRepository persists the entries of one named cache in the
// cache_entries table
type SQLiteCacheRepository struct {
	db      *sql.DB
	name    string
	manager *DBManager
}

// NewSQLiteCacheRepository creates a cache store for the cache called name
func NewSQLiteCacheRepository(db *sql.DB, name string, manager *DBManager) *SQLiteCacheRepository {
	return &SQLiteCacheRepository{db: db, name: name, manager: manager}
}

// Load returns every persisted entry of the cache
func (r *SQLiteCacheRepository) Load(ctx context.Context) (map[string]models.CacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cache_key, payload, written_at FROM cache_entries WHERE cache_name = ?`, r.name)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache %s: %w", r.name, err)
	}
	defer rows.Close()

	entries := make(map[string]models.CacheEntry)
	for rows.Next() {
		var key, payload string
		var writtenAt time.Time
		if err := rows.Scan(&key, &payload, &writtenAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		entries[key] = models.CacheEntry{Payload: json.RawMessage(payload), WrittenAt: writtenAt}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load cache %s: %w", r.name, err)
	}

	return entries, nil
}

// Put creates or replaces one entry
func (r *SQLiteCacheRepository) Put(ctx context.Context, key string, entry models.CacheEntry) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			_, err := r.db.ExecContext(ctx, `
			INSERT INTO cache_entries (cache_name, cache_key, payload, written_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(cache_name, cache_key) DO UPDATE SET
				payload = excluded.payload, written_at = excluded.written_at`,
				r.name, key, string(entry.Payload), entry.WrittenAt,
			)
			if err != nil {
				return fmt.Errorf("failed to store cache entry: %w", err)
			}
			return nil
		})
	})
}

// Delete removes one entry. Deleting a missing key is not an error.
func (r *SQLiteCacheRepository) Delete(ctx context.Context, key string) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			_, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ? AND cache_key = ?`, r.name, key)
			if err != nil {
				return fmt.Errorf("failed to delete cache entry: %w", err)
			}
			return nil
		})
	})
}

// Clear removes every entry of the cache
func (r *SQLiteCacheRepository) Clear(ctx context.Context) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			if _, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, r.name); err != nil {
				return fmt.Errorf("failed to clear cache %s: %w", r.name, err)
			}
			return nil
		})
	})
}

// Close is a no-op; the connection is owned by the RepositoryFactory
func (r *SQLiteCacheRepository) Close() error {
	return nil
}
