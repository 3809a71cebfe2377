package recommendation

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"worldatlas/db"
	"worldatlas/internal/auth"
	"worldatlas/internal/testutils"
	"worldatlas/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingCountries fails the test if the country collection is scanned
type countingCountries struct {
	db.CountryRepository
	findAllCalls int
}

func (c *countingCountries) FindAll(ctx context.Context) ([]*models.Country, error) {
	c.findAllCalls++
	return c.CountryRepository.FindAll(ctx)
}

func TestHaversine(t *testing.T) {
	hanoi := models.LatLng{Lat: 21.03, Lng: 105.85}
	paris := models.LatLng{Lat: 48.86, Lng: 2.35}

	assert.Equal(t, 0.0, Haversine(hanoi, hanoi))
	assert.InDelta(t, Haversine(hanoi, paris), Haversine(paris, hanoi), 1e-9)
	// roughly 9200 km
	assert.InDelta(t, 9200, Haversine(hanoi, paris), 100)
}

func TestDistanceScore(t *testing.T) {
	assert.Equal(t, 2, DistanceScore(0))
	assert.Equal(t, 2, DistanceScore(1000))
	assert.Equal(t, 1, DistanceScore(1000.5))
	assert.Equal(t, 1, DistanceScore(3000))
	assert.Equal(t, 0, DistanceScore(3000.001))
}

func TestScore_DistanceNeedsBothCentroids(t *testing.T) {
	a := &models.Country{CCA3: "AAA", LatLng: &models.LatLng{Lat: 0, Lng: 0}}
	b := &models.Country{CCA3: "BBB"}
	assert.Equal(t, 0, Score(a, b))

	b.LatLng = &models.LatLng{Lat: 0, Lng: 1}
	assert.Equal(t, 2, Score(a, b))
}

func TestScore_EmptyRegionDoesNotMatch(t *testing.T) {
	a := &models.Country{CCA3: "AAA"}
	b := &models.Country{CCA3: "BBB"}
	assert.Equal(t, 0, Score(a, b))
}

func TestScore_NeighbourEitherDirection(t *testing.T) {
	a := &models.Country{CCA3: "AAA", Borders: []string{"BBB"}}
	b := &models.Country{CCA3: "BBB"}
	assert.Equal(t, 3, Score(a, b))
	assert.Equal(t, 3, Score(b, a))
}

func TestRank(t *testing.T) {
	a := &models.Country{CCA3: "AAA", Region: "Asia", Borders: []string{"BBB"}}
	b := &models.Country{CCA3: "BBB", Region: "Asia"}
	c := &models.Country{CCA3: "CCC", Region: "Europe"}
	d := &models.Country{CCA3: "DDD", Region: "Asia"}

	ranked := Rank([]*models.Country{a}, []*models.Country{a, c, d, b})
	// B scores region+neighbour, D only region, C nothing and A is the source
	assert.Equal(t, []string{"BBB", "DDD"}, ranked)
}

func TestRank_TiesKeepFirstSeenOrder(t *testing.T) {
	a := &models.Country{CCA3: "AAA", Region: "Asia"}
	e := &models.Country{CCA3: "EEE", Subregion: "West", Region: "Europe"}
	x := &models.Country{CCA3: "XXX", Region: "Europe"}
	y := &models.Country{CCA3: "YYY", Region: "Asia"}
	z := &models.Country{CCA3: "ZZZ", Region: "Asia"}

	ranked := Rank([]*models.Country{a, e}, []*models.Country{z, x, y})
	assert.Equal(t, []string{"ZZZ", "YYY", "XXX"}, ranked)
}

func setupService(t *testing.T) (*RecommendationService, *countingCountries, db.TravelStatusRepository) {
	factory := testutils.SetupTestRepositoryFactory(t)
	countries := &countingCountries{CountryRepository: factory.NewCountryRepository()}
	testutils.SeedCountries(t, countries, testutils.SampleCountries())
	statuses := factory.NewTravelStatusRepository()
	return NewRecommendationService(statuses, countries, zap.NewNop()), countries, statuses
}

func TestRecommend_EmptyBucketSkipsCountryScan(t *testing.T) {
	service, countries, statuses := setupService(t)
	ctx := context.Background()

	_, err := statuses.Upsert(ctx, &models.UserCountryStatus{UserID: "u1", CountryCode: "VNM", Status: models.TravelStatusVisited})
	require.NoError(t, err)

	result, err := service.Recommend(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
	assert.Equal(t, 0, countries.findAllCalls)
}

func TestRecommend_RanksNeighboursFirst(t *testing.T) {
	service, countries, statuses := setupService(t)
	ctx := context.Background()

	_, err := statuses.Upsert(ctx, &models.UserCountryStatus{UserID: "u1", CountryCode: "VNM", Status: models.TravelStatusBucket})
	require.NoError(t, err)

	result, err := service.Recommend(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, countries.findAllCalls)

	codes := make([]string, len(result))
	for i, c := range result {
		codes[i] = c.CCA3
	}
	// LAO: region+subregion+neighbour+near, THA: region+subregion+near, HKG: region+near
	assert.Equal(t, []string{"LAO", "THA", "HKG"}, codes)
	assert.NotContains(t, codes, "VNM")
	assert.NotContains(t, codes, "FRA")
}

func TestRecommend_CapsAtTwenty(t *testing.T) {
	service, countries, statuses := setupService(t)
	ctx := context.Background()

	source := testutils.CreateTestCountry("ZSR", "Oceania")
	source.Subregion = "Polynesia"
	seed := []*models.Country{source}
	for i := 1; i <= 25; i++ {
		c := testutils.CreateTestCountry(fmt.Sprintf("Q%02d", i), "Oceania")
		// the last five also share the subregion and outrank the rest
		if i > 20 {
			c.Subregion = "Polynesia"
		}
		seed = append(seed, c)
	}
	testutils.SeedCountries(t, countries, seed)

	_, err := statuses.Upsert(ctx, &models.UserCountryStatus{UserID: "u1", CountryCode: "ZSR", Status: models.TravelStatusBucket})
	require.NoError(t, err)

	result, err := service.Recommend(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, result, MaxRecommendations)

	var want []string
	for i := 21; i <= 25; i++ {
		want = append(want, fmt.Sprintf("Q%02d", i))
	}
	for i := 1; i <= 15; i++ {
		want = append(want, fmt.Sprintf("Q%02d", i))
	}
	codes := make([]string, len(result))
	for i, c := range result {
		codes[i] = c.CCA3
	}
	assert.Equal(t, want, codes)
}

func TestRecommend_UnknownBucketCountryIgnored(t *testing.T) {
	service, _, statuses := setupService(t)
	ctx := context.Background()

	_, err := statuses.Upsert(ctx, &models.UserCountryStatus{UserID: "u1", CountryCode: "ZZZ", Status: models.TravelStatusBucket})
	require.NoError(t, err)

	result, err := service.Recommend(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRecommendationHandlers(t *testing.T) {
	service, _, statuses := setupService(t)
	_, err := statuses.Upsert(context.Background(), &models.UserCountryStatus{UserID: "u1", CountryCode: "FRA", Status: models.TravelStatusBucket})
	require.NoError(t, err)

	handlers := NewRecommendationHandlers(service, zap.NewNop())
	key := testutils.GetTestConfig().JwtKey

	router := mux.NewRouter()
	router.HandleFunc("/api/recommendations", func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ParseBearer(key, r.Header.Get("Authorization"))
		if err == nil {
			r = r.WithContext(auth.WithUserID(r.Context(), claims.UserID))
		}
		handlers.GetRecommendations(w, r)
	}).Methods(http.MethodGet)

	ts := testutils.NewTestServer(t, router)

	type body struct {
		Recommendations []*models.Country `json:"recommendations"`
	}
	data := testutils.AssertJSONResponse[body](t, ts.AsUser(key, "u1").GET("/api/recommendations"), http.StatusOK)
	require.NotEmpty(t, data.Recommendations)
	assert.Equal(t, "BEL", data.Recommendations[0].CCA3)

	testutils.AssertErrorResponse(t, ts.Anonymous().GET("/api/recommendations"), http.StatusUnauthorized, "")
}
