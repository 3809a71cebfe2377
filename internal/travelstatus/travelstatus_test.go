package travelstatus

import (
	"context"
	"net/http"
	"testing"
	"time"

	"worldatlas/db"
	"worldatlas/internal/testutils"
	"worldatlas/middleware"
	"worldatlas/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) *TravelStatusService {
	factory := testutils.SetupTestRepositoryFactory(t)
	countries := factory.NewCountryRepository()
	testutils.SeedCountries(t, countries, testutils.SampleCountries())
	return NewTravelStatusService(factory.NewTravelStatusRepository(), countries, zap.NewNop())
}

func TestUpsert_Validation(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{"unknown status", Input{CountryCode: "VNM", Status: "wishlist"}, ErrInvalidInput},
		{"missing code", Input{Status: models.TravelStatusVisited}, ErrInvalidInput},
		{"end before start", Input{CountryCode: "VNM", Status: models.TravelStatusVisited, StartDate: &start, EndDate: &end}, ErrInvalidInput},
		{"unknown country", Input{CountryCode: "ZZZ", Status: models.TravelStatusVisited}, db.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Upsert(ctx, "u1", tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpsert_UpdatesInPlace(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	created, err := service.Upsert(ctx, "u1", Input{CountryCode: "vn", Status: models.TravelStatusBucket, Note: " someday "})
	require.NoError(t, err)
	assert.Equal(t, "VNM", created.CountryCode)
	assert.Equal(t, "someday", created.Note)

	updated, err := service.Upsert(ctx, "u1", Input{CountryCode: "VNM", Status: models.TravelStatusVisited})
	require.NoError(t, err)
	assert.Equal(t, models.TravelStatusVisited, updated.Status)

	all, err := service.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.TravelStatusVisited, all[0].Status)
}

func TestUpsert_SingleLivingCountry(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	_, err := service.Upsert(ctx, "u1", Input{CountryCode: "VNM", Status: models.TravelStatusLiving})
	require.NoError(t, err)

	// re-saving the same living country is fine
	_, err = service.Upsert(ctx, "u1", Input{CountryCode: "VNM", Status: models.TravelStatusLiving, Note: "Hanoi"})
	require.NoError(t, err)

	_, err = service.Upsert(ctx, "u1", Input{CountryCode: "FRA", Status: models.TravelStatusLiving})
	assert.ErrorIs(t, err, ErrLivingConflict)

	// other users are independent
	_, err = service.Upsert(ctx, "u2", Input{CountryCode: "FRA", Status: models.TravelStatusLiving})
	require.NoError(t, err)

	_, err = service.Upsert(ctx, "u1", Input{CountryCode: "VNM", Status: models.TravelStatusVisited})
	require.NoError(t, err)
	_, err = service.Upsert(ctx, "u1", Input{CountryCode: "FRA", Status: models.TravelStatusLiving})
	require.NoError(t, err)
}

func TestGetAndDelete(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	_, err := service.Upsert(ctx, "u1", Input{CountryCode: "THA", Status: models.TravelStatusBucket})
	require.NoError(t, err)

	status, err := service.Get(ctx, "u1", "tha")
	require.NoError(t, err)
	assert.Equal(t, models.TravelStatusBucket, status.Status)

	_, err = service.Get(ctx, "u2", "THA")
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, service.Delete(ctx, "u1", "THA"))
	assert.ErrorIs(t, service.Delete(ctx, "u1", "THA"), db.ErrNotFound)
}

func TestTravelStatusHandlers(t *testing.T) {
	service := setupService(t)
	handlers := NewTravelStatusHandlers(service, zap.NewNop())
	cfg := testutils.GetTestConfig()
	m := middleware.NewMiddleware(cfg, zap.NewNop())

	router := mux.NewRouter()
	router.HandleFunc("/api/travel-status", m.AuthMiddleware(handlers.ListStatuses)).Methods(http.MethodGet)
	router.HandleFunc("/api/travel-status", m.AuthMiddleware(handlers.UpsertStatus)).Methods(http.MethodPut)
	router.HandleFunc("/api/travel-status/{code}", m.AuthMiddleware(handlers.GetStatus)).Methods(http.MethodGet)
	router.HandleFunc("/api/travel-status/{code}", m.AuthMiddleware(handlers.DeleteStatus)).Methods(http.MethodDelete)
	ts := testutils.NewTestServer(t, router)

	testutils.AssertErrorResponse(t, ts.GET("/api/travel-status"), http.StatusUnauthorized, "")

	ts.AsUser(cfg.JwtKey, uuid.NewString())

	saved := testutils.AssertJSONResponse[models.UserCountryStatus](t, ts.PUT("/api/travel-status", Input{CountryCode: "LAO", Status: models.TravelStatusLiving}), http.StatusOK)
	assert.Equal(t, "LAO", saved.CountryCode)

	testutils.AssertErrorResponse(t, ts.PUT("/api/travel-status", Input{CountryCode: "THA", Status: models.TravelStatusLiving}), http.StatusConflict, "living")
	testutils.AssertErrorResponse(t, ts.PUT("/api/travel-status", Input{CountryCode: "THA", Status: "nope"}), http.StatusBadRequest, "status")

	list := testutils.AssertJSONResponse[[]models.UserCountryStatus](t, ts.GET("/api/travel-status"), http.StatusOK)
	assert.Len(t, list, 1)

	one := testutils.AssertJSONResponse[models.UserCountryStatus](t, ts.GET("/api/travel-status/LAO"), http.StatusOK)
	assert.Equal(t, models.TravelStatusLiving, one.Status)

	resp := ts.DELETE("/api/travel-status/LAO")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	testutils.AssertErrorResponse(t, ts.GET("/api/travel-status/LAO"), http.StatusNotFound, "")
}
