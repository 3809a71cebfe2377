package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"worldatlas/models"

	"go.uber.org/zap"
)

const DefaultTTL = 24 * time.Hour

type Options struct {
	Name string
	// TTL defaults to DefaultTTL
	TTL time.Duration
	// MaxEntries bounds the cache; 0 means unbounded
	MaxEntries int
	Store      Store
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Cache is a TTL cache of JSON payloads with optional capacity, backed by
// a Store. Persistence failures are logged and never surface to callers.
type Cache struct {
	name       string
	ttl        time.Duration
	maxEntries int
	store      Store
	now        func() time.Time
	logger     *zap.Logger

	mu      sync.Mutex
	entries map[string]models.CacheEntry
}

type Stats struct {
	Name       string `json:"name"`
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"maxEntries"`
	TTLSeconds int64  `json:"ttlSeconds"`
}

// New creates a cache and loads whatever its store holds. A failing load
// leaves the cache empty.
func New(ctx context.Context, opts Options) *Cache {
	c := &Cache{
		name:       opts.Name,
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		store:      opts.Store,
		now:        opts.Clock,
		logger:     opts.Logger,
		entries:    make(map[string]models.CacheEntry),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.store == nil {
		c.store = nopStore{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("cache", c.name))

	loaded, err := c.store.Load(ctx)
	if err != nil {
		cacheStoreErrorsTotal.WithLabelValues(c.name, "load").Inc()
		c.logger.Warn("failed to load persisted cache, starting empty", zap.Error(err))
		loaded = nil
	}
	for k, v := range loaded {
		c.entries[k] = v
	}
	if c.maxEntries > 0 {
		for len(c.entries) > c.maxEntries {
			c.evictOldestLocked(ctx)
		}
	}
	cacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))

	c.logger.Info("cache ready", zap.Int("entries", len(c.entries)), zap.Duration("ttl", c.ttl))
	return c
}

// Name returns the cache's name
func (c *Cache) Name() string {
	return c.name
}

// Get returns the payload stored under key. An expired entry is dropped
// from memory and from the store and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		cacheRequestsTotal.WithLabelValues(c.name, "miss").Inc()
		return nil, false
	}

	if entry.Expired(c.now(), c.ttl) {
		delete(c.entries, key)
		c.deleteFromStoreLocked(ctx, key)
		cacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
		cacheRequestsTotal.WithLabelValues(c.name, "expired").Inc()
		return nil, false
	}

	cacheRequestsTotal.WithLabelValues(c.name, "hit").Inc()
	return entry.Payload, true
}

// GetJSON decodes the payload under key into v. An undecodable entry is
// dropped and reported as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, v interface{}) bool {
	payload, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.Delete(ctx, key)
		return false
	}
	return true
}

// Set stores payload under key. Inserting a new key into a full cache
// first evicts the entry with the oldest write time.
func (c *Cache) Set(ctx context.Context, key string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked(ctx)
	}

	entry := models.CacheEntry{Payload: payload, WrittenAt: c.now()}
	c.entries[key] = entry
	cacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))

	if err := c.store.Put(ctx, key, entry); err != nil {
		cacheStoreErrorsTotal.WithLabelValues(c.name, "put").Inc()
		c.logger.Warn("failed to persist cache entry", zap.String("key", key), zap.Error(err))
	}
}

// SetJSON encodes v and stores it under key
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	c.Set(ctx, key, payload)
	return nil
}

// Delete removes key and reports whether it was present
func (c *Cache) Delete(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.deleteFromStoreLocked(ctx, key)
	cacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
	return true
}

// Clear removes every entry and returns how many there were
func (c *Cache) Clear(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]models.CacheEntry)
	cacheEntries.WithLabelValues(c.name).Set(0)

	if err := c.store.Clear(ctx); err != nil {
		cacheStoreErrorsTotal.WithLabelValues(c.name, "clear").Inc()
		c.logger.Warn("failed to clear persisted cache", zap.Error(err))
	}
	return n
}

// Len returns the number of entries held, expired ones included until
// they are next read
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Name:       c.name,
		Entries:    c.Len(),
		MaxEntries: c.maxEntries,
		TTLSeconds: int64(c.ttl / time.Second),
	}
}

// evictOldestLocked removes the entry with the oldest write time. Ties go
// to the smallest key so eviction is deterministic.
func (c *Cache) evictOldestLocked(ctx context.Context) {
	var oldestKey string
	var oldest time.Time
	found := false

	for k, e := range c.entries {
		if !found || e.WrittenAt.Before(oldest) || (e.WrittenAt.Equal(oldest) && k < oldestKey) {
			oldestKey, oldest, found = k, e.WrittenAt, true
		}
	}
	if !found {
		return
	}

	delete(c.entries, oldestKey)
	c.deleteFromStoreLocked(ctx, oldestKey)
	cacheEvictionsTotal.WithLabelValues(c.name).Inc()
	c.logger.Debug("evicted oldest cache entry", zap.String("key", oldestKey))
}

func (c *Cache) deleteFromStoreLocked(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		cacheStoreErrorsTotal.WithLabelValues(c.name, "delete").Inc()
		c.logger.Warn("failed to delete persisted cache entry", zap.String("key", key), zap.Error(err))
	}
}
