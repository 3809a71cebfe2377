package cache

import (
	"context"

	"worldatlas/models"
)

// Store persists cache entries so they survive a restart. Implementations
// are called with the cache's lock held and never concurrently.
type Store interface {
	Load(ctx context.Context) (map[string]models.CacheEntry, error)
	Put(ctx context.Context, key string, entry models.CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// nopStore keeps nothing; used when no store is configured
type nopStore struct{}

func (nopStore) Load(context.Context) (map[string]models.CacheEntry, error) { return nil, nil }
func (nopStore) Put(context.Context, string, models.CacheEntry) error { return nil }
func (nopStore) Delete(context.Context, string) error { return nil }
func (nopStore) Clear(context.Context) error { return nil }
