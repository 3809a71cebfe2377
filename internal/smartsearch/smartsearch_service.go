package smartsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"worldatlas/db"
	"worldatlas/internal/ai"
	"worldatlas/internal/cache"
	"worldatlas/models"

	"go.uber.org/zap"
)

// DefaultMaxEntries bounds the smart search cache
const DefaultMaxEntries = 200

var ErrInvalidInput = errors.New("search query is required")

type Result struct {
	Countries      []models.CountrySummary `json:"countries"`
	Interpretation string                  `json:"interpretation"`
	Total          int                     `json:"total"`
	RequestedCodes int                     `json:"requestedCodes"`
	FromCache      bool                    `json:"fromCache,omitempty"`
}

type SmartSearchService struct {
	Countries db.CountryRepository
	AI        *ai.Client
	Cache     *cache.Cache
	logger    *zap.Logger
}

func NewSmartSearchService(countries db.CountryRepository, client *ai.Client, c *cache.Cache, logger *zap.Logger) *SmartSearchService {
	return &SmartSearchService{
		Countries: countries,
		AI:        client,
		Cache:     c,
		logger:    logger,
	}
}

// resolve maps the query to country codes, consulting the cache first
func (s *SmartSearchService) resolve(ctx context.Context, query string) (*ai.SearchResolution, bool, error) {
	key := cache.TextKey(query)

	var cached ai.SearchResolution
	if s.Cache.GetJSON(ctx, key, &cached) {
		return &cached, true, nil
	}

	res, err := s.AI.ResolveCountries(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve search query: %w", err)
	}
	if err := s.Cache.SetJSON(ctx, key, res); err != nil {
		s.logger.Warn("failed to cache search resolution", zap.String("key", key), zap.Error(err))
	}
	return res, false, nil
}

// Search answers a natural-language query with the countries the model
// named, in the model's order
func (s *SmartSearchService) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}

	res, fromCache, err := s.resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Countries:      []models.CountrySummary{},
		Interpretation: res.Interpretation,
		RequestedCodes: len(res.CountryCodes),
		FromCache:      fromCache,
	}
	if len(res.CountryCodes) == 0 {
		if result.Interpretation == "" {
			result.Interpretation = "No countries found for this query"
		}
		return result, nil
	}

	countries, err := s.Countries.FindByCodes(ctx, res.CountryCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}

	byCode := make(map[string]*models.Country, len(countries))
	for _, c := range countries {
		byCode[c.CCA3] = c
	}
	for _, code := range res.CountryCodes {
		if c, ok := byCode[code]; ok {
			result.Countries = append(result.Countries, c.Summary())
		}
	}
	result.Total = len(result.Countries)

	s.logger.Debug("smart search",
		zap.String("query", query),
		zap.Bool("from_cache", fromCache),
		zap.Int("results", result.Total))
	return result, nil
}
