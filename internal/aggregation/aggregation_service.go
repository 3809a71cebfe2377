package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"worldatlas/db"
	"worldatlas/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LanguageLimit is the number of languages the distribution returns
const LanguageLimit = 10

var ErrInvalidInput = errors.New("invalid input")

type AggregationService struct {
	Countries db.CountryRepository
	Regions   db.RegionRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewAggregationService(countries db.CountryRepository, regions db.RegionRepository, logger *zap.Logger) *AggregationService {
	return &AggregationService{
		Countries: countries,
		Regions:   regions,
		logger:    logger,
		now:       time.Now,
	}
}

// BuildRollup turns one region's totals into a rollup. Density is 0 when
// the region has no area.
func BuildRollup(totals models.RegionTotals, at time.Time) *models.RegionRollup {
	rollup := &models.RegionRollup{
		Name:                     totals.Region,
		TotalPopulation:          totals.TotalPopulation,
		TotalArea:                totals.TotalArea,
		AveragePopulationDensity: models.Density(float64(totals.TotalPopulation), totals.TotalArea),
		LastAggregatedAt:         at,
	}
	for _, code := range totals.Codes {
		if IsSovereign(code) {
			rollup.CountryCount++
		} else {
			rollup.TerritoryCount++
		}
	}
	return rollup
}

// RecomputeRegions rebuilds every region rollup from the country collection.
// Countries without a region are left out. The first failed upsert aborts
// the run; rollups already written stay written.
func (s *AggregationService) RecomputeRegions(ctx context.Context) ([]*models.RegionRollup, error) {
	totals, err := s.Countries.SumByRegion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate countries by region: %w", err)
	}

	at := s.now().UTC()
	rollups := make([]*models.RegionRollup, 0, len(totals))
	for _, t := range totals {
		if t.Region == "" {
			continue
		}
		rollup := BuildRollup(t, at)
		if err := s.Regions.Upsert(ctx, rollup); err != nil {
			return rollups, fmt.Errorf("failed to store rollup for %s: %w", rollup.Name, err)
		}
		rollups = append(rollups, rollup)
	}

	s.logger.Info("region rollups recomputed", zap.Int("regions", len(rollups)))
	return rollups, nil
}

// SortLanguageCounts orders by count descending, then language name
// ascending, and keeps at most limit entries
func SortLanguageCounts(counts []models.LanguageCount, limit int) []models.LanguageCount {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Language < counts[j].Language
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// LanguageDistribution counts how many sovereign states speak each
// language, optionally within one region, and returns the top ten
func (s *AggregationService) LanguageDistribution(ctx context.Context, region string) ([]models.LanguageCount, error) {
	counts, err := s.Countries.LanguageCounts(ctx, SovereignCodes(), region, LanguageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to count languages: %w", err)
	}
	return SortLanguageCounts(counts, LanguageLimit), nil
}

// RegionStats returns the stored rollup of region
func (s *AggregationService) RegionStats(ctx context.Context, region string) (*models.RegionStats, error) {
	if region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}

	rollup, err := s.Regions.FindByName(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", region, err)
	}

	return &models.RegionStats{
		CountryCount:    rollup.CountryCount,
		TotalPopulation: rollup.TotalPopulation,
		TotalArea:       rollup.TotalArea,
	}, nil
}

// RegionExtremes finds the largest and the most populous country of region
func (s *AggregationService) RegionExtremes(ctx context.Context, region string) (*models.RegionExtremes, error) {
	if region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}

	var byArea, byPopulation []*models.Country
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byArea, err = s.Countries.TopBy(gctx, "area", region, 1)
		return err
	})
	g.Go(func() error {
		var err error
		byPopulation, err = s.Countries.TopBy(gctx, "population", region, 1)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to find region extremes: %w", err)
	}

	if len(byArea) == 0 || len(byPopulation) == 0 {
		return nil, fmt.Errorf("region %s: %w", region, db.ErrNotFound)
	}

	maxArea := byArea[0].Summary()
	maxPopulation := byPopulation[0].Summary()
	return &models.RegionExtremes{MaxArea: &maxArea, MaxPopulation: &maxPopulation}, nil
}
