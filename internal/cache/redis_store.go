package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"worldatlas/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one cache as a Redis hash, one field per key
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisClient connects a single-node or cluster client
func NewRedisClient(addrs []string, password string) redis.UniversalClient {
	if len(addrs) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:     addrs[0],
		Password: password,
		DB:       0,
	})
}

// NewRedisStore returns a store for the cache called name
func NewRedisStore(client redis.UniversalClient, namespace, name string) *RedisStore {
	return &RedisStore{client: client, key: namespace + ":cache:" + name}
}

// Load reads every field of the hash. Fields that do not decode are skipped.
func (s *RedisStore) Load(ctx context.Context) (map[string]models.CacheEntry, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load cache hash %s: %w", s.key, err)
	}

	entries := make(map[string]models.CacheEntry, len(fields))
	for k, raw := range fields {
		var e models.CacheEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries[k] = e
	}
	return entries, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, entry models.CacheEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.client.HSet(ctx, s.key, key, b).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.HDel(ctx, s.key, key).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
