package recommendation

import (
	"context"
	"fmt"

	"worldatlas/db"
	"worldatlas/models"

	"go.uber.org/zap"
)

// MaxRecommendations caps the number of countries returned
const MaxRecommendations = 20

type RecommendationService struct {
	Statuses  db.TravelStatusRepository
	Countries db.CountryRepository
	logger    *zap.Logger
}

func NewRecommendationService(statuses db.TravelStatusRepository, countries db.CountryRepository, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		Statuses:  statuses,
		Countries: countries,
		logger:    logger,
	}
}

// Recommend suggests countries similar to those on the user's bucket list
func (s *RecommendationService) Recommend(ctx context.Context, userID string) ([]*models.Country, error) {
	bucket, err := s.Statuses.FindByUserAndStatus(ctx, userID, models.TravelStatusBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to load bucket list: %w", err)
	}
	if len(bucket) == 0 {
		return []*models.Country{}, nil
	}

	all, err := s.Countries.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}

	byCode := make(map[string]*models.Country, len(all))
	for _, c := range all {
		byCode[c.CCA3] = c
	}

	sources := make([]*models.Country, 0, len(bucket))
	for _, entry := range bucket {
		if c, ok := byCode[entry.CountryCode]; ok {
			sources = append(sources, c)
		}
	}

	codes := Rank(sources, all)
	if len(codes) > MaxRecommendations {
		codes = codes[:MaxRecommendations]
	}

	result := make([]*models.Country, 0, len(codes))
	for _, code := range codes {
		result = append(result, byCode[code])
	}

	s.logger.Debug("recommendations computed",
		zap.String("user_id", userID),
		zap.Int("bucket", len(sources)),
		zap.Int("results", len(result)))
	return result, nil
}
