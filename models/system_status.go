package models

import (
	"time"
)

type DatabaseStatus struct {
	Backend   string `json:"backend"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
	Countries int64  `json:"countries"`
}

type CacheStatus struct {
	Name       string `json:"name"`
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"maxEntries"`
	TTLSeconds int64  `json:"ttlSeconds"`
}

// SystemStatus is a point-in-time health snapshot of the service
type SystemStatus struct {
	Database      DatabaseStatus `json:"database"`
	Caches        []CacheStatus  `json:"caches"`
	AIConfigured  bool           `json:"aiConfigured"`
	UptimeSeconds int64          `json:"uptimeSeconds"`
	CheckedAt     time.Time      `json:"checkedAt"`
}
