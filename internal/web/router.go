package web

import (
	"net/http"

	"worldatlas/internal/advisor"
	"worldatlas/internal/aggregation"
	"worldatlas/internal/country"
	"worldatlas/internal/countrysync"
	"worldatlas/internal/favorite"
	"worldatlas/internal/gdpprediction"
	"worldatlas/internal/recommendation"
	"worldatlas/internal/response"
	"worldatlas/internal/smartsearch"
	"worldatlas/internal/systemstatus"
	"worldatlas/internal/travelstatus"
	"worldatlas/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers collects the HTTP handlers of every feature
type Handlers struct {
	Countries       *country.CountryHandlers
	Aggregation     *aggregation.AggregationHandlers
	Recommendations *recommendation.RecommendationHandlers
	GDPPrediction   *gdpprediction.GDPPredictionHandlers
	SmartSearch     *smartsearch.SmartSearchHandlers
	Advisor         *advisor.AdvisorHandlers
	TravelStatus    *travelstatus.TravelStatusHandlers
	Favorites       *favorite.FavoriteHandlers
	CountrySync     *countrysync.CountrySyncHandlers
	SystemStatus    *systemstatus.SystemStatusHandlers
}

// SetupRoutes registers the API. Static paths under /api/countries come
// before /api/countries/{code} since mux matches in registration order.
func SetupRoutes(h Handlers, m *middleware.Middleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Countries
	api.HandleFunc("/countries", h.Countries.ListCountries).Methods("GET")
	api.HandleFunc("/countries/names", h.Countries.GetNames).Methods("GET")
	api.HandleFunc("/countries/stats", h.Countries.GetGlobalStats).Methods("GET")
	api.HandleFunc("/countries/top/population", h.Countries.GetTopByPopulation).Methods("GET")
	api.HandleFunc("/countries/top/area", h.Countries.GetTopByArea).Methods("GET")
	api.HandleFunc("/countries/languages", h.Aggregation.GetLanguageDistribution).Methods("GET")
	api.HandleFunc("/countries/by-codes", h.Countries.ListByCodes).Methods("POST")
	api.HandleFunc("/countries/sync", m.AuthMiddleware(h.CountrySync.Sync)).Methods("POST")
	api.HandleFunc("/countries/{code}", h.Countries.GetCountry).Methods("GET")

	// GDP
	api.HandleFunc("/gdp/predict/{code}", h.GDPPrediction.Predict).Methods("GET")
	api.HandleFunc("/gdp/{code}", h.Countries.GetLatestGDP).Methods("GET")
	api.HandleFunc("/gdp/{code}/series", h.Countries.GetGDPSeries).Methods("GET")

	// Regions
	api.HandleFunc("/regions/stats", h.Aggregation.GetRegionStats).Methods("GET")
	api.HandleFunc("/regions/max", h.Aggregation.GetRegionExtremes).Methods("GET")
	api.HandleFunc("/regions/recompute", m.AuthMiddleware(h.Aggregation.RecomputeRegions)).Methods("POST")

	// AI
	api.HandleFunc("/smart-search", h.SmartSearch.Search).Methods("POST")
	api.HandleFunc("/ai/travel", h.Advisor.Travel).Methods("POST")
	api.HandleFunc("/ai/chat", h.Advisor.Chat).Methods("POST")
	api.HandleFunc("/ai/compare", h.Advisor.Compare).Methods("POST")

	// User data
	api.HandleFunc("/recommendations", m.AuthMiddleware(h.Recommendations.GetRecommendations)).Methods("GET")
	api.HandleFunc("/travel-status", m.AuthMiddleware(h.TravelStatus.ListStatuses)).Methods("GET")
	api.HandleFunc("/travel-status", m.AuthMiddleware(h.TravelStatus.UpsertStatus)).Methods("PUT", "POST")
	api.HandleFunc("/travel-status/{code}", m.AuthMiddleware(h.TravelStatus.GetStatus)).Methods("GET")
	api.HandleFunc("/travel-status/{code}", m.AuthMiddleware(h.TravelStatus.DeleteStatus)).Methods("DELETE")
	api.HandleFunc("/favorites", m.AuthMiddleware(h.Favorites.ListFavorites)).Methods("GET")
	api.HandleFunc("/favorites/codes", m.AuthMiddleware(h.Favorites.ListCodes)).Methods("GET")
	api.HandleFunc("/favorites/{code}", m.AuthMiddleware(h.Favorites.AddFavorite)).Methods("POST")
	api.HandleFunc("/favorites/{code}", m.AuthMiddleware(h.Favorites.RemoveFavorite)).Methods("DELETE")

	// System
	api.HandleFunc("/system/status", h.SystemStatus.GetSystemStatus).Methods("GET")
	api.HandleFunc("/system/cache/{name}", m.AuthMiddleware(h.SystemStatus.ClearCache)).Methods("DELETE")

	// subrouters don't inherit these from the parent
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(notFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusNotFound, "route not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
}

// NewHandler wraps the router with CORS and request logging, which must
// also see requests that match no route
func NewHandler(h Handlers, m *middleware.Middleware, allowedOrigins []string, logger *zap.Logger) http.Handler {
	router := SetupRoutes(h, m)
	return middleware.LoggingMiddleware(logger)(middleware.SetupCORS(allowedOrigins)(router))
}
