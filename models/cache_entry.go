package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is a cached upstream response. The payload is kept as raw
// JSON so every backend can persist it without knowing its shape.
type CacheEntry struct {
	Payload   json.RawMessage `json:"payload"`
	WrittenAt time.Time       `json:"writtenAt"`
}

// Expired reports whether the entry is at least ttl old at now
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.WrittenAt) >= ttl
}
