package systemstatus

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"worldatlas/db"
	"worldatlas/internal/cache"
	"worldatlas/internal/testutils"
	"worldatlas/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type downDatabase struct{}

func (downDatabase) Ping(context.Context) error { return errors.New("connection refused") }
func (downDatabase) Backend() string { return "mongodb" }

func setupService(t *testing.T) (*SystemStatusService, *cache.Cache) {
	factory := testutils.SetupTestRepositoryFactory(t)
	countries := factory.NewCountryRepository()
	testutils.SeedCountries(t, countries, testutils.SampleCountries())

	ctx := context.Background()
	gdp := cache.New(ctx, cache.Options{Name: "gdp_prediction"})
	search := cache.New(ctx, cache.Options{Name: "smart_search", MaxEntries: 200})
	return NewSystemStatusService(factory, countries, []*cache.Cache{gdp, search}, true, zap.NewNop()), gdp
}

func TestGetStatus(t *testing.T) {
	service, gdp := setupService(t)
	gdp.Set(context.Background(), "VNM_en", []byte(`{}`))

	status := service.GetStatus(context.Background())
	assert.Equal(t, "sqlite", status.Database.Backend)
	assert.True(t, status.Database.Healthy)
	assert.Equal(t, int64(6), status.Database.Countries)
	assert.True(t, status.AIConfigured)
	require.Len(t, status.Caches, 2)
	assert.Equal(t, models.CacheStatus{Name: "gdp_prediction", Entries: 1, TTLSeconds: 86400}, status.Caches[0])
	assert.Equal(t, 200, status.Caches[1].MaxEntries)
}

func TestGetStatus_DatabaseDown(t *testing.T) {
	service, _ := setupService(t)
	service.DB = downDatabase{}

	status := service.GetStatus(context.Background())
	assert.False(t, status.Database.Healthy)
	assert.Equal(t, "mongodb", status.Database.Backend)
	assert.Contains(t, status.Database.Error, "refused")
}

func TestClearCache(t *testing.T) {
	service, gdp := setupService(t)
	ctx := context.Background()
	gdp.Set(ctx, "VNM_en", []byte(`{}`))
	gdp.Set(ctx, "LAO_en", []byte(`{}`))

	removed, err := service.ClearCache(ctx, "gdp_prediction", "VNM_en")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = service.ClearCache(ctx, "gdp_prediction", "VNM_en")
	assert.ErrorIs(t, err, db.ErrNotFound)

	removed, err = service.ClearCache(ctx, "gdp_prediction", "")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, gdp.Len())

	_, err = service.ClearCache(ctx, "nope", "")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSystemStatusHandlers(t *testing.T) {
	service, gdp := setupService(t)
	gdp.Set(context.Background(), "VNM_en", []byte(`{}`))
	handlers := NewSystemStatusHandlers(service, zap.NewNop())

	router := mux.NewRouter()
	router.HandleFunc("/api/system/status", handlers.GetSystemStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/system/cache/{name}", handlers.ClearCache).Methods(http.MethodDelete)
	ts := testutils.NewTestServer(t, router)

	status := testutils.AssertJSONResponse[models.SystemStatus](t, ts.GET("/api/system/status"), http.StatusOK)
	assert.True(t, status.Database.Healthy)

	type cleared struct {
		Removed int `json:"removed"`
	}
	result := testutils.AssertJSONResponse[cleared](t, ts.DELETE("/api/system/cache/gdp_prediction"), http.StatusOK)
	assert.Equal(t, 1, result.Removed)

	testutils.AssertErrorResponse(t, ts.DELETE("/api/system/cache/gdp_prediction?key=VNM_en"), http.StatusNotFound, "")
	testutils.AssertErrorResponse(t, ts.DELETE("/api/system/cache/unknown"), http.StatusNotFound, "")
}
