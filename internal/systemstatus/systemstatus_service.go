package systemstatus

import (
	"context"
	"fmt"
	"time"

	"worldatlas/db"
	"worldatlas/internal/cache"
	"worldatlas/models"

	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// Database is the part of the repository factory the status check needs
type Database interface {
	Ping(ctx context.Context) error
	Backend() string
}

type SystemStatusService struct {
	DB           Database
	Countries    db.CountryRepository
	caches       []*cache.Cache
	aiConfigured bool
	startedAt    time.Time
	logger       *zap.Logger
}

func NewSystemStatusService(database Database, countries db.CountryRepository, caches []*cache.Cache, aiConfigured bool, logger *zap.Logger) *SystemStatusService {
	return &SystemStatusService{
		DB:           database,
		Countries:    countries,
		caches:       caches,
		aiConfigured: aiConfigured,
		startedAt:    time.Now(),
		logger:       logger,
	}
}

// GetStatus reports database health and cache sizes. A failing database
// is reported in the status rather than returned as an error.
func (s *SystemStatusService) GetStatus(ctx context.Context) *models.SystemStatus {
	now := time.Now()
	status := &models.SystemStatus{
		Database:      models.DatabaseStatus{Backend: s.DB.Backend()},
		Caches:        make([]models.CacheStatus, 0, len(s.caches)),
		AIConfigured:  s.aiConfigured,
		UptimeSeconds: int64(now.Sub(s.startedAt) / time.Second),
		CheckedAt:     now,
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.Ping(pingCtx); err != nil {
		s.logger.Warn("database ping failed", zap.Error(err))
		status.Database.Error = err.Error()
	} else if count, err := s.Countries.Count(ctx); err != nil {
		status.Database.Error = err.Error()
	} else {
		status.Database.Healthy = true
		status.Database.Countries = count
	}

	for _, c := range s.caches {
		st := c.Stats()
		status.Caches = append(status.Caches, models.CacheStatus{
			Name:       st.Name,
			Entries:    st.Entries,
			MaxEntries: st.MaxEntries,
			TTLSeconds: st.TTLSeconds,
		})
	}
	return status
}

func (s *SystemStatusService) findCache(name string) (*cache.Cache, error) {
	for _, c := range s.caches {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("cache %q: %w", name, db.ErrNotFound)
}

// ClearCache empties the named cache, or removes only key when it is set.
// It returns the number of entries removed.
func (s *SystemStatusService) ClearCache(ctx context.Context, name, key string) (int, error) {
	c, err := s.findCache(name)
	if err != nil {
		return 0, err
	}

	if key == "" {
		n := c.Clear(ctx)
		s.logger.Info("cache cleared", zap.String("cache", name), zap.Int("entries", n))
		return n, nil
	}

	if !c.Delete(ctx, key) {
		return 0, fmt.Errorf("cache %q key %q: %w", name, key, db.ErrNotFound)
	}
	s.logger.Info("cache entry removed", zap.String("cache", name), zap.String("key", key))
	return 1, nil
}
