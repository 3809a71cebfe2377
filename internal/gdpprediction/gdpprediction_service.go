package gdpprediction

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

const (
	// MinHistory is the fewest valid GDP points a forecast needs
	MinHistory = 3
	// MaxHistory is how many of the most recent points are sent upstream
	MaxHistory = 10
)

var ErrInsufficientData = errors.New("insufficient GDP data for prediction (need at least 3 years)")

// Prediction is the forecast returned to clients and stored in the cache
type Prediction struct {
	CountryName    string            `json:"countryName"`
	CountryCode    string            `json:"countryCode"`
	HistoricalData []models.GDPPoint `json:"historicalData"`
	Predictions    []models.GDPPoint `json:"predictions"`
	Analysis       string            `json:"analysis"`
	FromCache      bool              `json:"fromCache,omitempty"`
}

type GDPPredictionService struct {
	Countries db.CountryRepository
	AI        *ai.Client
	Cache     *cache.Cache
	logger    *zap.Logger
}

func NewGDPPredictionService(countries db.CountryRepository, client *ai.Client, c *cache.Cache, logger *zap.Logger) *GDPPredictionService {
	return &GDPPredictionService{
		Countries: countries,
		AI:        client,
		Cache:     c,
		logger:    logger,
	}
}

// History returns the last MaxHistory valid GDP points of a country
func History(country *models.Country) []models.GDPPoint {
	points := country.ValidGDP()
	if len(points) > MaxHistory {
		points = points[len(points)-MaxHistory:]
	}
	return points
}

// Predict returns a five-year GDP forecast for the country, served from the
// cache when a live entry exists. Failed forecasts are never cached.
func (s *GDPPredictionService) Predict(ctx context.Context, code, lang string) (*Prediction, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	// cache keys always use the cca3
	var country *models.Country
	if len(code) != 3 {
		found, err := s.Countries.FindByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to find country %s: %w", code, err)
		}
		country, code = found, found.CCA3
	}
	key := cache.CountryKey(code, lang)

	var cached Prediction
	if s.Cache.GetJSON(ctx, key, &cached) {
		s.logger.Debug("gdp prediction cache hit", zap.String("key", key))
		cached.FromCache = true
		return &cached, nil
	}

	if country == nil {
		found, err := s.Countries.FindByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to find country %s: %w", code, err)
		}
		country = found
	}

	history := History(country)
	if len(history) < MinHistory {
		return nil, ErrInsufficientData
	}

	forecast, err := s.AI.PredictGDP(ctx, country.Name.Common, history, lang)
	if err != nil {
		s.logger.Warn("gdp forecast failed", zap.String("country", country.CCA3), zap.Error(err))
		return nil, fmt.Errorf("failed to predict GDP for %s: %w", country.CCA3, err)
	}

	prediction := &Prediction{
		CountryName:    country.Name.Common,
		CountryCode:    country.CCA3,
		HistoricalData: history,
		Predictions:    forecast.Predictions,
		Analysis:       forecast.Analysis,
	}
	if err := s.Cache.SetJSON(ctx, key, prediction); err != nil {
		s.logger.Warn("failed to cache gdp prediction", zap.String("key", key), zap.Error(err))
	}
	return prediction, nil
}
