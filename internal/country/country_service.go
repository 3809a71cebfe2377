package country

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"worldatlas/db"
	"worldatlas/models"

	"go.uber.org/zap"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 250
	TopLimit     = 10
)

var ErrInvalidInput = errors.New("invalid country query")

// ListQuery is a filtered, sorted, paginated listing request
type ListQuery struct {
	Region      string
	Subregion   string
	Independent *bool
	Search      string
	SortBy      string
	Desc        bool
	Page        int
	Limit       int
}

type ListResult struct {
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"totalPages"`
	Data       []models.CountrySummary `json:"data"`
}

type CountryService struct {
	Countries db.CountryRepository
	logger    *zap.Logger
}

func NewCountryService(countries db.CountryRepository, logger *zap.Logger) *CountryService {
	return &CountryService{Countries: countries, logger: logger}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func summaries(countries []*models.Country) []models.CountrySummary {
	out := make([]models.CountrySummary, 0, len(countries))
	for _, c := range countries {
		out = append(out, c.Summary())
	}
	return out
}

func (s *CountryService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	switch q.SortBy {
	case "":
		q.SortBy = "name"
	case "name", "population", "area":
	default:
		return nil, fmt.Errorf("%w: unsupported sortBy %q", ErrInvalidInput, q.SortBy)
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	filter := db.CountryFilter{
		Region:      q.Region,
		Subregion:   q.Subregion,
		Independent: q.Independent,
		Search:      strings.TrimSpace(q.Search),
	}
	countries, total, err := s.Countries.List(ctx, filter, db.CountrySort{Field: q.SortBy, Desc: q.Desc}, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}

	return &ListResult{
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		Data:       summaries(countries),
	}, nil
}

// Get finds a country by its cca3 or cca2 code
func (s *CountryService) Get(ctx context.Context, code string) (*models.Country, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: country code is required", ErrInvalidInput)
	}
	country, err := s.Countries.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get country %s: %w", code, err)
	}
	return country, nil
}

func (s *CountryService) ListByCodes(ctx context.Context, codes []string) ([]models.CountrySummary, error) {
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = normalizeCode(code); code != "" {
			normalized = append(normalized, code)
		}
	}
	countries, err := s.Countries.FindByCodes(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries by code: %w", err)
	}
	return summaries(countries), nil
}

// Names lists every country's code and common name, for search dropdowns
func (s *CountryService) Names(ctx context.Context) ([]models.CountryNameEntry, error) {
	countries, err := s.Countries.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list country names: %w", err)
	}
	names := make([]models.CountryNameEntry, 0, len(countries))
	for _, c := range countries {
		names = append(names, models.CountryNameEntry{CCA3: c.CCA3, Name: c.Name.Common})
	}
	return names, nil
}

func (s *CountryService) top(ctx context.Context, field, region string) ([]*models.Country, error) {
	countries, err := s.Countries.TopBy(ctx, field, region, TopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top countries by %s: %w", field, err)
	}
	return countries, nil
}

func (s *CountryService) TopByPopulation(ctx context.Context, region string) ([]*models.Country, error) {
	return s.top(ctx, "population", region)
}

func (s *CountryService) TopByArea(ctx context.Context, region string) ([]*models.Country, error) {
	return s.top(ctx, "area", region)
}

// LatestGDP returns the most recent GDP point of a country
func (s *CountryService) LatestGDP(ctx context.Context, code string) (*models.GDPPoint, error) {
	country, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	latest := country.LatestGDP()
	if latest == nil {
		return nil, fmt.Errorf("no GDP data for %s: %w", country.CCA3, db.ErrNotFound)
	}
	return latest, nil
}

func (s *CountryService) GDPSeries(ctx context.Context, code string) ([]models.GDPPoint, error) {
	country, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if country.GDP == nil {
		return []models.GDPPoint{}, nil
	}
	return country.GDP, nil
}

// GlobalStats counts countries, sums population and counts distinct
// non-empty regions
func (s *CountryService) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	total, err := s.Countries.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count countries: %w", err)
	}
	totals, err := s.Countries.SumByRegion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum regions: %w", err)
	}

	stats := &models.GlobalStats{TotalCountries: total}
	for _, t := range totals {
		stats.TotalPopulation += t.TotalPopulation
		if t.Region != "" {
			stats.TotalRegions++
		}
	}
	return stats, nil
}
