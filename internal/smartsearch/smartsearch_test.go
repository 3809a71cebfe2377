package smartsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"worldatlas/internal/ai"
	"worldatlas/internal/cache"
	"worldatlas/internal/testutils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func (s *stubGenerator) setText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func setupService(t *testing.T, gen ai.Generator, maxEntries int) *SmartSearchService {
	factory := testutils.SetupTestRepositoryFactory(t)
	countries := factory.NewCountryRepository()
	testutils.SeedCountries(t, countries, testutils.SampleCountries())

	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.New(context.Background(), cache.Options{Name: "smart_search_test", MaxEntries: maxEntries, Clock: clk.Now})
	return NewSmartSearchService(countries, ai.NewClient(gen), c, zap.NewNop())
}

func TestSearch_EmptyQuery(t *testing.T) {
	gen := &stubGenerator{}
	service := setupService(t, gen, DefaultMaxEntries)

	_, err := service.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, gen.prompts)
}

func TestSearch_KeepsModelOrderAndCaches(t *testing.T) {
	gen := &stubGenerator{text: `{"countryCodes":["THA","vnm","ZZZ"],"interpretation":"Mekong countries"}`}
	service := setupService(t, gen, DefaultMaxEntries)
	ctx := context.Background()

	result, err := service.Search(ctx, "Mekong  countries")
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	require.Len(t, result.Countries, 2)
	assert.Equal(t, "THA", result.Countries[0].CCA3)
	assert.Equal(t, "VNM", result.Countries[1].CCA3)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 3, result.RequestedCodes)
	assert.Equal(t, "Mekong countries", result.Interpretation)

	again, err := service.Search(ctx, "  mekong COUNTRIES ")
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.Equal(t, result.Countries, again.Countries)
	assert.Len(t, gen.prompts, 1)
}

func TestSearch_NoCodes(t *testing.T) {
	gen := &stubGenerator{text: `{"countryCodes":[]}`}
	service := setupService(t, gen, DefaultMaxEntries)

	result, err := service.Search(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.Empty(t, result.Countries)
	assert.Equal(t, "No countries found for this query", result.Interpretation)
}

func TestSearch_UpstreamFailureNotCached(t *testing.T) {
	gen := &stubGenerator{err: errors.New("timeout")}
	service := setupService(t, gen, DefaultMaxEntries)

	_, err := service.Search(context.Background(), "islands")
	assert.ErrorIs(t, err, ai.ErrUpstream)
	assert.Equal(t, 0, service.Cache.Len())
}

func TestSearch_CacheNeverExceedsMax(t *testing.T) {
	gen := &stubGenerator{text: `{"countryCodes":["FRA"],"interpretation":"x"}`}
	service := setupService(t, gen, DefaultMaxEntries)
	ctx := context.Background()

	for i := 0; i <= DefaultMaxEntries; i++ {
		_, err := service.Search(ctx, fmt.Sprintf("query %d", i))
		require.NoError(t, err)
		assert.LessOrEqual(t, service.Cache.Len(), DefaultMaxEntries)
	}
	assert.Equal(t, DefaultMaxEntries, service.Cache.Len())

	// the newest survives, the oldest was evicted
	last, err := service.Search(ctx, fmt.Sprintf("query %d", DefaultMaxEntries))
	require.NoError(t, err)
	assert.True(t, last.FromCache)

	first, err := service.Search(ctx, "query 0")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := service.Search(ctx, "query 2")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
}

func TestSmartSearchHandlers(t *testing.T) {
	gen := &stubGenerator{text: "```json\n{\"countryCodes\":[\"BEL\",\"FRA\"],\"interpretation\":\"French speaking\"}\n```"}
	service := setupService(t, gen, DefaultMaxEntries)
	handlers := NewSmartSearchHandlers(service, zap.NewNop())

	router := mux.NewRouter()
	router.HandleFunc("/api/smart-search", handlers.Search).Methods(http.MethodPost)
	ts := testutils.NewTestServer(t, router)

	result := testutils.AssertJSONResponse[Result](t, ts.POST("/api/smart-search", map[string]string{"query": "french speaking"}), http.StatusOK)
	require.Len(t, result.Countries, 2)
	assert.Equal(t, "BEL", result.Countries[0].CCA3)

	testutils.AssertErrorResponse(t, ts.POST("/api/smart-search", map[string]string{"query": ""}), http.StatusBadRequest, "query")

	gen.setText("I don't know")
	testutils.AssertErrorResponse(t, ts.POST("/api/smart-search", map[string]string{"query": "unknown"}), http.StatusBadGateway, "")
}
