package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"worldatlas/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	written := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	first := NewFileStore(dir, "gdp")
	entries, err := first.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, first.Put(ctx, "VNM_en", models.CacheEntry{Payload: json.RawMessage(`{"a":1}`), WrittenAt: written}))
	require.NoError(t, first.Put(ctx, "FRA_vi", models.CacheEntry{Payload: json.RawMessage(`{"b":2}`), WrittenAt: written}))
	require.NoError(t, first.Delete(ctx, "FRA_vi"))

	second := NewFileStore(dir, "gdp")
	entries, err = second.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"a":1}`, string(entries["VNM_en"].Payload))
	assert.True(t, written.Equal(entries["VNM_en"].WrittenAt))

	_, err = os.Stat(second.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_CorruptFileIsReplaced(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir, "smart-search")
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	_, err := store.Load(ctx)
	assert.Error(t, err)

	require.NoError(t, store.Put(ctx, "vietnam", models.CacheEntry{Payload: json.RawMessage(`[]`), WrittenAt: time.Now()}))

	entries, err := NewFileStore(dir, "smart-search").Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, entries, "vietnam")
}

func TestFileStore_BacksCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := newFakeClock()

	c := New(ctx, Options{Name: "chat", Store: NewFileStore(dir, "chat"), Clock: clock.Now})
	c.Set(ctx, "hello", json.RawMessage(`"hi"`))

	restarted := New(ctx, Options{Name: "chat", Store: NewFileStore(dir, "chat"), Clock: clock.Now})
	payload, ok := restarted.Get(ctx, "hello")
	require.True(t, ok)
	assert.Equal(t, `"hi"`, string(payload))

	restarted.Clear(ctx)
	entries, err := NewFileStore(dir, "chat").Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
