package aggregation

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"worldatlas/db"
	"worldatlas/internal/testutils"
	"worldatlas/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) (*AggregationService, *db.RepositoryFactory) {
	factory := testutils.SetupTestRepositoryFactory(t)
	countries := factory.NewCountryRepository()
	testutils.SeedCountries(t, countries, testutils.SampleCountries())
	return NewAggregationService(countries, factory.NewRegionRepository(), zap.NewNop()), factory
}

func TestSovereignList(t *testing.T) {
	assert.Len(t, SovereignCodes(), 195)
	assert.True(t, IsSovereign("VNM"))
	assert.True(t, IsSovereign("VAT"))
	assert.True(t, IsSovereign("PSE"))
	assert.False(t, IsSovereign("HKG"))
	assert.False(t, IsSovereign("GRL"))
}

func TestBuildRollup_ZeroAreaHasZeroDensity(t *testing.T) {
	rollup := BuildRollup(models.RegionTotals{Region: "Antarctic", TotalPopulation: 1000, TotalArea: 0, Codes: []string{"ATA"}}, time.Now())

	assert.Equal(t, float64(0), rollup.AveragePopulationDensity)
	assert.False(t, math.IsNaN(rollup.AveragePopulationDensity))
	assert.Equal(t, 0, rollup.CountryCount)
	assert.Equal(t, 1, rollup.TerritoryCount)
}

func TestRecomputeRegions(t *testing.T) {
	service, factory := setupService(t)
	ctx := context.Background()

	extra := []*models.Country{
		testutils.CreateTestCountry("ATA", "Antarctic"),
		testutils.CreateTestCountry("XXX", ""),
	}
	extra[0].Area = 0
	testutils.SeedCountries(t, factory.NewCountryRepository(), extra)

	rollups, err := service.RecomputeRegions(ctx)
	require.NoError(t, err)
	require.Len(t, rollups, 3)

	regions := factory.NewRegionRepository()

	asia, err := regions.FindByName(ctx, "Asia")
	require.NoError(t, err)
	assert.Equal(t, int64(183000000), asia.TotalPopulation)
	assert.InDelta(t, 1082236, asia.TotalArea, 1e-6)
	assert.InDelta(t, 183000000.0/1082236.0, asia.AveragePopulationDensity, 1e-9)
	assert.Equal(t, 3, asia.CountryCount)
	assert.Equal(t, 1, asia.TerritoryCount)

	antarctic, err := regions.FindByName(ctx, "Antarctic")
	require.NoError(t, err)
	assert.Equal(t, float64(0), antarctic.AveragePopulationDensity)

	_, err = regions.FindByName(ctx, "")
	assert.ErrorIs(t, err, db.ErrNotFound)

	// recompute replaces rather than duplicates
	_, err = service.RecomputeRegions(ctx)
	require.NoError(t, err)
	all, err := regions.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

type failingRegions struct {
	db.RegionRepository
	calls int
}

func (f *failingRegions) Upsert(context.Context, *models.RegionRollup) error {
	f.calls++
	return errors.New("write failed")
}

func TestRecomputeRegions_AbortsOnFirstFailure(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)
	countries := factory.NewCountryRepository()
	testutils.SeedCountries(t, countries, testutils.SampleCountries())

	regions := &failingRegions{}
	service := NewAggregationService(countries, regions, zap.NewNop())

	_, err := service.RecomputeRegions(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, regions.calls)
}

func TestLanguageDistribution(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	counts, err := service.LanguageDistribution(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []models.LanguageCount{
		{Language: "French", Count: 2},
		{Language: "Dutch", Count: 1},
		{Language: "German", Count: 1},
		{Language: "Lao", Count: 1},
		{Language: "Thai", Count: 1},
		{Language: "Vietnamese", Count: 1},
	}, counts)

	asia, err := service.LanguageDistribution(ctx, "Asia")
	require.NoError(t, err)
	names := make([]string, 0, len(asia))
	for _, c := range asia {
		names = append(names, c.Language)
	}
	// Hong Kong is not sovereign, so English and Chinese are not counted
	assert.Equal(t, []string{"Lao", "Thai", "Vietnamese"}, names)
}

func TestLanguageDistribution_AtMostTen(t *testing.T) {
	service, factory := setupService(t)

	zaf := testutils.CreateTestCountry("ZAF", "Africa")
	zaf.Languages = map[string]string{}
	for _, l := range []string{"afr", "eng", "nbl", "nso", "sot", "ssw", "tsn", "tso", "ven", "xho", "zul", "sign"} {
		zaf.Languages[l] = "Lang-" + l
	}
	testutils.SeedCountries(t, factory.NewCountryRepository(), []*models.Country{zaf})

	counts, err := service.LanguageDistribution(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, counts, LanguageLimit)
	assert.Equal(t, "French", counts[0].Language)
	for i := 1; i < len(counts); i++ {
		assert.GreaterOrEqual(t, counts[i-1].Count, counts[i].Count)
	}
}

func TestSortLanguageCounts(t *testing.T) {
	counts := []models.LanguageCount{
		{Language: "b", Count: 1},
		{Language: "a", Count: 1},
		{Language: "c", Count: 3},
	}
	assert.Equal(t, []models.LanguageCount{
		{Language: "c", Count: 3},
		{Language: "a", Count: 1},
	}, SortLanguageCounts(counts, 2))
}

func TestRegionStatsAndExtremes(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	_, err := service.RegionStats(ctx, "Asia")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = service.RecomputeRegions(ctx)
	require.NoError(t, err)

	stats, err := service.RegionStats(ctx, "Europe")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CountryCount)
	assert.Equal(t, int64(79600000), stats.TotalPopulation)

	extremes, err := service.RegionExtremes(ctx, "Asia")
	require.NoError(t, err)
	assert.Equal(t, "THA", extremes.MaxArea.CCA3)
	assert.Equal(t, "VNM", extremes.MaxPopulation.CCA3)

	_, err = service.RegionExtremes(ctx, "Oceania")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = service.RegionStats(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAggregationHandlers(t *testing.T) {
	service, _ := setupService(t)
	handlers := NewAggregationHandlers(service, zap.NewNop())

	router := mux.NewRouter()
	router.HandleFunc("/regions/stats", handlers.GetRegionStats).Methods(http.MethodGet)
	router.HandleFunc("/regions/recompute", handlers.RecomputeRegions).Methods(http.MethodPost)
	router.HandleFunc("/languages", handlers.GetLanguageDistribution).Methods(http.MethodGet)
	server := testutils.NewTestServer(t, router)

	testutils.AssertErrorResponse(t, server.GET("/regions/stats?region=Asia"), http.StatusNotFound, "")
	testutils.AssertErrorResponse(t, server.GET("/regions/stats"), http.StatusBadRequest, "region is required")

	rollups := testutils.AssertJSONResponse[[]models.RegionRollup](t, server.POST("/regions/recompute", nil), http.StatusOK)
	assert.Len(t, rollups, 2)

	stats := testutils.AssertJSONResponse[models.RegionStats](t, server.GET("/regions/stats?region=Asia"), http.StatusOK)
	assert.Equal(t, 3, stats.CountryCount)

	counts := testutils.AssertJSONResponse[[]models.LanguageCount](t, server.GET("/languages?region=Europe"), http.StatusOK)
	require.NotEmpty(t, counts)
	assert.Equal(t, models.LanguageCount{Language: "French", Count: 2}, counts[0])
}
