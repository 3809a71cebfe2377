package advisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"worldatlas/db"
	"worldatlas/internal/ai"
	"worldatlas/internal/cache"
	"worldatlas/models"

	"go.uber.org/zap"
)

const (
	MinCompare = 2
	MaxCompare = 5
)

var ErrInvalidInput = errors.New("invalid advisor request")

// Caches groups the per-feature response caches
type Caches struct {
	Travel  *cache.Cache
	Chat    *cache.Cache
	Compare *cache.Cache
}

type Recommendation struct {
	ai.TravelRecommendation
	Flag       string             `json:"flag,omitempty"`
	Population *models.Population `json:"population,omitempty"`
	Region     string             `json:"region,omitempty"`
}

type TravelResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	Explanation     string           `json:"explanation"`
	FromCache       bool             `json:"fromCache,omitempty"`
}

type CountryRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

type ChatResult struct {
	ai.ChatAnswer
	CountriesData []CountryRef `json:"countriesData,omitempty"`
	FromCache     bool         `json:"fromCache,omitempty"`
}

type CompareResult struct {
	ai.Comparison
	Countries []string `json:"countries"`
	FromCache bool     `json:"fromCache,omitempty"`
}

type AdvisorService struct {
	Countries db.CountryRepository
	AI        *ai.Client
	Caches    Caches
	logger    *zap.Logger
}

func NewAdvisorService(countries db.CountryRepository, client *ai.Client, caches Caches, logger *zap.Logger) *AdvisorService {
	return &AdvisorService{
		Countries: countries,
		AI:        client,
		Caches:    caches,
		logger:    logger,
	}
}

func textKey(text, lang string) string {
	return cache.TextKey(text) + "_" + lang
}

// CompareKey is order-insensitive over codes
func CompareKey(codes []string, lang string) string {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	return strings.Join(sorted, "-") + "_" + lang
}

func (s *AdvisorService) store(ctx context.Context, c *cache.Cache, key string, v interface{}) {
	if err := c.SetJSON(ctx, key, v); err != nil {
		s.logger.Warn("failed to cache advisor response", zap.String("cache", c.Name()), zap.String("key", key), zap.Error(err))
	}
}

func (s *AdvisorService) byCode(ctx context.Context, codes []string) (map[string]*models.Country, error) {
	countries, err := s.Countries.FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}
	m := make(map[string]*models.Country, len(countries))
	for _, c := range countries {
		m[c.CCA3] = c
	}
	return m, nil
}

// Travel recommends destinations matching free-text preferences
func (s *AdvisorService) Travel(ctx context.Context, preferences, lang string) (*TravelResult, error) {
	if strings.TrimSpace(preferences) == "" {
		return nil, fmt.Errorf("%w: please provide your travel preferences", ErrInvalidInput)
	}
	key := textKey(preferences, lang)

	var cached TravelResult
	if s.Caches.Travel.GetJSON(ctx, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	advice, err := s.AI.TravelAdvice(ctx, preferences, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to get travel advice: %w", err)
	}

	codes := make([]string, 0, len(advice.Recommendations))
	for _, rec := range advice.Recommendations {
		codes = append(codes, rec.CountryCode)
	}
	countries, err := s.byCode(ctx, codes)
	if err != nil {
		return nil, err
	}

	result := &TravelResult{
		Recommendations: make([]Recommendation, 0, len(advice.Recommendations)),
		Explanation:     advice.Explanation,
	}
	for _, rec := range advice.Recommendations {
		enriched := Recommendation{TravelRecommendation: rec}
		if c, ok := countries[rec.CountryCode]; ok {
			pop := c.Population
			enriched.Flag = c.FlagURL()
			enriched.Population = &pop
			enriched.Region = c.Region
		}
		result.Recommendations = append(result.Recommendations, enriched)
	}

	s.store(ctx, s.Caches.Travel, key, result)
	return result, nil
}

// Chat answers a question. Only questions asked without prior turns are cached.
func (s *AdvisorService) Chat(ctx context.Context, question string, history []ai.ChatTurn, lang string) (*ChatResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: please provide a question", ErrInvalidInput)
	}
	key := textKey(question, lang)
	cacheable := len(history) == 0

	if cacheable {
		var cached ChatResult
		if s.Caches.Chat.GetJSON(ctx, key, &cached) {
			cached.FromCache = true
			return &cached, nil
		}
	}

	answer, err := s.AI.Chat(ctx, question, history, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	result := &ChatResult{ChatAnswer: *answer}
	if len(answer.RelatedCountries) > 0 {
		countries, err := s.byCode(ctx, answer.RelatedCountries)
		if err != nil {
			return nil, err
		}
		for _, code := range answer.RelatedCountries {
			if c, ok := countries[code]; ok {
				result.CountriesData = append(result.CountriesData, CountryRef{Code: c.CCA3, Name: c.Name.Common, Flag: c.FlagURL()})
			}
		}
	}

	if cacheable {
		s.store(ctx, s.Caches.Chat, key, result)
	}
	return result, nil
}

// Compare contrasts between MinCompare and MaxCompare countries
func (s *AdvisorService) Compare(ctx context.Context, codes []string, lang string) (*CompareResult, error) {
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	if len(normalized) < MinCompare || len(normalized) > MaxCompare {
		return nil, fmt.Errorf("%w: compare needs between %d and %d countries", ErrInvalidInput, MinCompare, MaxCompare)
	}

	key := CompareKey(normalized, lang)
	var cached CompareResult
	if s.Caches.Compare.GetJSON(ctx, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	countries, err := s.byCode(ctx, normalized)
	if err != nil {
		return nil, err
	}

	facts := make([]ai.CountryFacts, 0, len(normalized))
	for _, code := range normalized {
		c, ok := countries[code]
		if !ok {
			return nil, fmt.Errorf("country %s: %w", code, db.ErrNotFound)
		}
		f := ai.CountryFacts{
			Name:              c.Name.Common,
			Population:        c.Population.Value,
			Area:              c.Area,
			Region:            c.Region,
			PopulationDensity: c.PopulationDensity,
		}
		if latest := c.LatestGDP(); latest != nil {
			v := latest.Value
			f.GDP = &v
		}
		facts = append(facts, f)
	}

	comparison, err := s.AI.Compare(ctx, facts, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to compare countries: %w", err)
	}

	result := &CompareResult{Comparison: *comparison, Countries: normalized}
	s.store(ctx, s.Caches.Compare, key, result)
	return result, nil
}
