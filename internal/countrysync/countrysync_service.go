package countrysync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"worldatlas/db"
	"worldatlas/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrSource = errors.New("country source unavailable")

// RegionRecomputer rebuilds region rollups after an import
type RegionRecomputer interface {
	RecomputeRegions(ctx context.Context) ([]*models.RegionRollup, error)
}

type Options struct {
	RestCountriesURL string
	WorldBankURL     string
	PopulationYear   int
	HTTPClient       *http.Client
}

// Report summarizes one sync run
type Report struct {
	Fetched  int `json:"fetched"`
	Imported int `json:"imported"`
	WithGDP  int `json:"withGdp"`
	Regions  int `json:"regions"`
}

type CountrySyncService struct {
	Countries  db.CountryRepository
	Aggregator RegionRecomputer
	opts       Options
	logger     *zap.Logger
}

func NewCountrySyncService(countries db.CountryRepository, aggregator RegionRecomputer, opts Options, logger *zap.Logger) *CountrySyncService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &CountrySyncService{
		Countries:  countries,
		Aggregator: aggregator,
		opts:       opts,
		logger:     logger,
	}
}

// toCountry maps a merged restcountries record. Density is only set for a
// positive area.
func toCountry(raw rawCountry, populationYear int) *models.Country {
	c := &models.Country{
		CCA3:        raw.CCA3,
		CCA2:        raw.CCA2,
		Name:        models.CountryName{Common: raw.Name.Common, Official: raw.Name.Official},
		Capital:     raw.Capital,
		Region:      raw.Region,
		Subregion:   raw.Subregion,
		Independent: raw.Independent != nil && *raw.Independent,
		UNMember:    raw.UNMember,
		Population:  models.Population{Value: raw.Population, Year: populationYear},
		Area:        raw.Area,
		Timezones:   raw.Timezones,
		Borders:     raw.Borders,
		Languages:   raw.Languages,
		Flags:       raw.Flags,
		Maps:        raw.Maps,
	}
	if len(raw.LatLng) == 2 {
		c.LatLng = &models.LatLng{Lat: raw.LatLng[0], Lng: raw.LatLng[1]}
	}
	if raw.Area > 0 {
		density := models.Density(float64(raw.Population), raw.Area)
		c.PopulationDensity = &density
	}
	return c
}

// Sync imports every independent country, refreshes GDP history where the
// World Bank has it and recomputes the region rollups
func (s *CountrySyncService) Sync(ctx context.Context) (*Report, error) {
	groups := make([]map[string]map[string]json.RawMessage, len(fieldGroups))
	var gdp map[string][]models.GDPPoint

	g, gctx := errgroup.WithContext(ctx)
	for i, fields := range fieldGroups {
		i, fields := i, fields
		g.Go(func() error {
			group, err := fetchGroup(gctx, s.opts.HTTPClient, s.opts.RestCountriesURL, fields)
			if err != nil {
				return err
			}
			groups[i] = group
			return nil
		})
	}
	g.Go(func() error {
		series, err := fetchGDP(gctx, s.opts.HTTPClient, s.opts.WorldBankURL, s.opts.PopulationYear)
		if err != nil {
			s.logger.Warn("GDP fetch failed, keeping stored series", zap.Error(err))
			return nil
		}
		gdp = series
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSource, err)
	}

	raws, err := mergeGroups(groups)
	if err != nil {
		return nil, err
	}

	report := &Report{Fetched: len(raws)}
	for _, raw := range raws {
		if raw.Independent == nil || !*raw.Independent {
			continue
		}
		country := toCountry(raw, s.opts.PopulationYear)

		if series, ok := gdp[country.CCA3]; ok && len(series) > 0 {
			country.GDP = series
		} else if existing, err := s.Countries.FindByCode(ctx, country.CCA3); err == nil {
			country.GDP = existing.GDP
		} else if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("failed to load stored country %s: %w", country.CCA3, err)
		}
		if len(country.GDP) > 0 {
			report.WithGDP++
		}

		if err := s.Countries.Upsert(ctx, country); err != nil {
			return nil, fmt.Errorf("failed to upsert country %s: %w", country.CCA3, err)
		}
		report.Imported++
	}

	rollups, err := s.Aggregator.RecomputeRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute regions: %w", err)
	}
	report.Regions = len(rollups)

	s.logger.Info("country sync complete",
		zap.Int("fetched", report.Fetched),
		zap.Int("imported", report.Imported),
		zap.Int("with_gdp", report.WithGDP),
		zap.Int("regions", report.Regions))
	return report, nil
}
