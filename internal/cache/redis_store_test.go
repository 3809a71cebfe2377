package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"worldatlas/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := NewRedisClient([]string{addr}, os.Getenv("REDIS_TEST_PASSWORD"))
	defer client.Close()

	store := NewRedisStore(client, "worldatlas-test", uuid.New().String())
	defer store.Clear(ctx)

	written := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, "VNM_en", models.CacheEntry{Payload: json.RawMessage(`{"a":1}`), WrittenAt: written}))
	require.NoError(t, store.Put(ctx, "FRA_en", models.CacheEntry{Payload: json.RawMessage(`{"b":2}`), WrittenAt: written}))
	require.NoError(t, store.Delete(ctx, "FRA_en"))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"a":1}`, string(entries["VNM_en"].Payload))
	assert.True(t, written.Equal(entries["VNM_en"].WrittenAt))

	require.NoError(t, store.Clear(ctx))
	entries, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
