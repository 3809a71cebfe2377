package db_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"worldatlas/db"
	"worldatlas/internal/cache"
	"worldatlas/internal/testutils"
	"worldatlas/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ cache.Store = (*db.SQLiteCacheRepository)(nil)

func codesOf(countries []*models.Country) []string {
	codes := make([]string, 0, len(countries))
	for _, c := range countries {
		codes = append(codes, c.CCA3)
	}
	return codes
}

func TestSQLiteCountryRepository(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)
	repo := factory.NewCountryRepository()
	ctx := context.Background()
	testutils.SeedCountries(t, repo, testutils.SampleCountries())

	t.Run("FindByCode", func(t *testing.T) {
		byCCA3, err := repo.FindByCode(ctx, "VNM")
		require.NoError(t, err)
		assert.Equal(t, "Vietnam", byCCA3.Name.Common)
		assert.Len(t, byCCA3.GDP, 4)

		byCCA2, err := repo.FindByCode(ctx, "BE")
		require.NoError(t, err)
		assert.Equal(t, "BEL", byCCA2.CCA3)

		_, err = repo.FindByCode(ctx, "XXX")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("FindByCodesSkipsUnknown", func(t *testing.T) {
		countries, err := repo.FindByCodes(ctx, []string{"THA", "XXX", "FRA"})
		require.NoError(t, err)
		assert.Equal(t, []string{"FRA", "THA"}, codesOf(countries))

		empty, err := repo.FindByCodes(ctx, nil)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("ListFiltersSortsAndPages", func(t *testing.T) {
		sort := db.CountrySort{Field: "population", Desc: true}
		page, total, err := repo.List(ctx, db.CountryFilter{Region: "Asia"}, sort, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []string{"VNM", "THA"}, codesOf(page))

		// equal populations fall back to cca3
		page, _, err = repo.List(ctx, db.CountryFilter{Region: "Asia"}, sort, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"HKG", "LAO"}, codesOf(page))

		independent := false
		page, total, err = repo.List(ctx, db.CountryFilter{Independent: &independent}, db.CountrySort{}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"HKG"}, codesOf(page))

		page, _, err = repo.List(ctx, db.CountryFilter{Search: "VIET"}, db.CountrySort{}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"VNM"}, codesOf(page))
	})

	t.Run("TopBy", func(t *testing.T) {
		top, err := repo.TopBy(ctx, "area", "Europe", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"FRA"}, codesOf(top))

		top, err = repo.TopBy(ctx, "population", "", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"VNM", "THA", "FRA"}, codesOf(top))

		_, err = repo.TopBy(ctx, "name", "", 3)
		assert.Error(t, err)
	})

	t.Run("UpsertKeepsCreatedAt", func(t *testing.T) {
		before, err := repo.FindByCode(ctx, "LAO")
		require.NoError(t, err)

		before.Population.Value = 7600000
		require.NoError(t, repo.Upsert(ctx, before))

		after, err := repo.FindByCode(ctx, "LAO")
		require.NoError(t, err)
		assert.Equal(t, int64(7600000), after.Population.Value)
		assert.True(t, after.CreatedAt.Equal(before.CreatedAt))

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6), count)

		before.Population.Value = 7500000
		require.NoError(t, repo.Upsert(ctx, before))
	})

	t.Run("SumByRegion", func(t *testing.T) {
		totals, err := repo.SumByRegion(ctx)
		require.NoError(t, err)
		require.Len(t, totals, 2)

		assert.Equal(t, "Asia", totals[0].Region)
		assert.Equal(t, int64(183000000), totals[0].TotalPopulation)
		assert.ElementsMatch(t, []string{"VNM", "LAO", "THA", "HKG"}, totals[0].Codes)
		assert.Equal(t, "Europe", totals[1].Region)
		assert.Equal(t, int64(79600000), totals[1].TotalPopulation)
	})

	t.Run("LanguageCounts", func(t *testing.T) {
		counts, err := repo.LanguageCounts(ctx, nil, "Europe", 10)
		require.NoError(t, err)
		assert.Equal(t, []models.LanguageCount{
			{Language: "French", Count: 2},
			{Language: "Dutch", Count: 1},
			{Language: "German", Count: 1},
		}, counts)

		counts, err = repo.LanguageCounts(ctx, []string{"HKG", "FRA"}, "", 1)
		require.NoError(t, err)
		assert.Equal(t, []models.LanguageCount{{Language: "Chinese", Count: 1}}, counts)
	})
}

func TestSQLiteCountryRepository_SearchIsLiteral(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)
	repo := factory.NewCountryRepository()
	ctx := context.Background()

	aland := testutils.CreateTestCountry("ALA", "Europe")
	aland.Name = models.CountryName{Common: "Åland Islands", Official: "Åland Islands"}
	underscore := testutils.CreateTestCountry("XUS", "Europe")
	underscore.Name = models.CountryName{Common: "Snake_Case Republic", Official: "100% Snake_Case"}
	countries := append(testutils.SampleCountries(), aland, underscore)
	testutils.SeedCountries(t, repo, countries)

	search := func(term string) []string {
		page, total, err := repo.List(ctx, db.CountryFilter{Search: term}, db.CountrySort{}, 0, 50)
		require.NoError(t, err)
		assert.Equal(t, int64(len(page)), total)
		return codesOf(page)
	}

	assert.Equal(t, []string{"XUS"}, search("_"))
	assert.Equal(t, []string{"XUS"}, search("%"))
	assert.Equal(t, []string{"XUS"}, search("snake_case"))
	assert.Empty(t, search(`\`))

	assert.Equal(t, []string{"ALA"}, search("ÅLAND"))
	assert.Equal(t, []string{"ALA"}, search("åland"))

	// a term never spans two fields
	assert.Empty(t, search("vietnam socialist"))
}

func TestSQLiteRegionRepository(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)
	repo := factory.NewRegionRepository()
	ctx := context.Background()

	_, err := repo.FindByName(ctx, "Asia")
	assert.ErrorIs(t, err, db.ErrNotFound)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &models.RegionRollup{Name: "Europe", TotalPopulation: 1, CountryCount: 1, LastAggregatedAt: at}))
	require.NoError(t, repo.Upsert(ctx, &models.RegionRollup{Name: "Asia", TotalPopulation: 5, CountryCount: 3, TerritoryCount: 1, LastAggregatedAt: at}))
	require.NoError(t, repo.Upsert(ctx, &models.RegionRollup{Name: "Asia", TotalPopulation: 6, CountryCount: 3, TerritoryCount: 1, LastAggregatedAt: at}))

	asia, err := repo.FindByName(ctx, "Asia")
	require.NoError(t, err)
	assert.Equal(t, int64(6), asia.TotalPopulation)
	assert.Equal(t, 1, asia.TerritoryCount)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Asia", all[0].Name)
	assert.Equal(t, "Europe", all[1].Name)
}

func TestSQLiteTravelStatusRepository(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)
	repo := factory.NewTravelStatusRepository()
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &models.UserCountryStatus{UserID: "u1", CountryCode: "VNM", Status: models.TravelStatusBucket})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &models.UserCountryStatus{UserID: "u1", CountryCode: "FRA", Status: models.TravelStatusVisited})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &models.UserCountryStatus{UserID: "u2", CountryCode: "VNM", Status: models.TravelStatusLiving})
	require.NoError(t, err)

	t.Run("UpsertReplacesAndKeepsCreatedAt", func(t *testing.T) {
		start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
		updated, err := repo.Upsert(ctx, &models.UserCountryStatus{
			UserID: "u1", CountryCode: "VNM", Status: models.TravelStatusVisited, Note: "Hanoi", StartDate: &start,
		})
		require.NoError(t, err)
		assert.True(t, updated.CreatedAt.Equal(first.CreatedAt))

		stored, err := repo.FindOne(ctx, "u1", "VNM")
		require.NoError(t, err)
		assert.Equal(t, models.TravelStatusVisited, stored.Status)
		assert.Equal(t, "Hanoi", stored.Note)
		require.NotNil(t, stored.StartDate)
		assert.True(t, stored.StartDate.Equal(start))
		assert.Nil(t, stored.EndDate)
	})

	t.Run("FindByUser", func(t *testing.T) {
		all, err := repo.FindByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		living, err := repo.FindByUserAndStatus(ctx, "u2", models.TravelStatusLiving)
		require.NoError(t, err)
		require.Len(t, living, 1)
		assert.Equal(t, "VNM", living[0].CountryCode)

		none, err := repo.FindByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "u1", "FRA"))
		assert.ErrorIs(t, repo.Delete(ctx, "u1", "FRA"), db.ErrNotFound)

		_, err := repo.FindOne(ctx, "u1", "FRA")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})
}

func TestSQLiteFavoriteRepository(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)
	repo := factory.NewFavoriteRepository()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "u1", "VNM"))
	require.NoError(t, repo.Add(ctx, "u1", "FRA"))
	require.NoError(t, repo.Add(ctx, "u1", "VNM"))
	require.NoError(t, repo.Add(ctx, "u2", "LAO"))

	codes, err := repo.FindCodes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"VNM", "FRA"}, codes)

	require.NoError(t, repo.Remove(ctx, "u1", "VNM"))
	require.NoError(t, repo.Remove(ctx, "u1", "VNM"))
	codes, err = repo.FindCodes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"FRA"}, codes)

	codes, err = repo.FindCodes(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, codes)
	assert.Empty(t, codes)
}

func TestSQLiteCacheRepository(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)
	gdp, err := factory.NewCacheRepository("gdp_prediction")
	require.NoError(t, err)
	chat, err := factory.NewCacheRepository("chat")
	require.NoError(t, err)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, gdp.Put(ctx, "VNM_en", models.CacheEntry{Payload: json.RawMessage(`{"a":1}`), WrittenAt: at}))
	require.NoError(t, gdp.Put(ctx, "VNM_en", models.CacheEntry{Payload: json.RawMessage(`{"a":2}`), WrittenAt: at}))
	require.NoError(t, gdp.Put(ctx, "LAO_vi", models.CacheEntry{Payload: json.RawMessage(`{"b":1}`), WrittenAt: at}))
	require.NoError(t, chat.Put(ctx, "hello_en", models.CacheEntry{Payload: json.RawMessage(`"hi"`), WrittenAt: at}))

	entries, err := gdp.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"a":2}`, string(entries["VNM_en"].Payload))
	assert.True(t, entries["VNM_en"].WrittenAt.Equal(at))

	require.NoError(t, gdp.Delete(ctx, "LAO_vi"))
	require.NoError(t, gdp.Delete(ctx, "missing"))
	entries, err = gdp.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, gdp.Clear(ctx))
	entries, err = gdp.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	others, err := chat.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestRepositoryFactory(t *testing.T) {
	factory := testutils.SetupTestRepositoryFactory(t)

	assert.Equal(t, "sqlite", factory.Backend())
	assert.NoError(t, factory.Ping(context.Background()))
	store, err := factory.NewCacheRepository("x")
	require.NoError(t, err)
	assert.NotNil(t, store)

	mongoBacked := db.NewRepositoryFactory(nil, nil, "unused")
	assert.Equal(t, "mongodb", mongoBacked.Backend())
	missing, err := mongoBacked.NewCacheRepository("x")
	assert.ErrorIs(t, err, db.ErrNotSQLite)
	assert.Nil(t, missing)
}
