package country

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"worldatlas/internal/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type CountryHandlers struct {
	Service *CountryService
	logger  *zap.Logger
}

func NewCountryHandlers(service *CountryService, logger *zap.Logger) *CountryHandlers {
	return &CountryHandlers{Service: service, logger: logger}
}

func (h *CountryHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("country request failed", zap.String("path", r.URL.Path), zap.Error(err))
	response.FromError(w, err, response.Is(ErrInvalidInput, http.StatusBadRequest))
}

// parseListQuery reads the listing query string. Unparseable numbers fall
// back to the defaults.
func parseListQuery(r *http.Request) (ListQuery, error) {
	v := r.URL.Query()
	q := ListQuery{
		Region:    v.Get("region"),
		Subregion: v.Get("subregion"),
		Search:    v.Get("search"),
		SortBy:    v.Get("sortBy"),
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.Limit, _ = strconv.Atoi(v.Get("limit"))

	switch v.Get("sortOrder") {
	case "", "1", "asc":
	case "-1", "desc":
		q.Desc = true
	default:
		return q, fmt.Errorf("%w: sortOrder must be 1 or -1", ErrInvalidInput)
	}

	if raw := v.Get("independent"); raw != "" {
		independent, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("%w: independent must be a boolean", ErrInvalidInput)
		}
		q.Independent = &independent
	}
	return q, nil
}

func (h *CountryHandlers) ListCountries(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *CountryHandlers) GetCountry(w http.ResponseWriter, r *http.Request) {
	country, err := h.Service.Get(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, country)
}

type codesRequest struct {
	Codes []string `json:"codes"`
}

func (h *CountryHandlers) ListByCodes(w http.ResponseWriter, r *http.Request) {
	var req codesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	countries, err := h.Service.ListByCodes(r.Context(), req.Codes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, countries)
}

func (h *CountryHandlers) GetNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.Service.Names(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, names)
}

func (h *CountryHandlers) GetTopByPopulation(w http.ResponseWriter, r *http.Request) {
	countries, err := h.Service.TopByPopulation(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, countries)
}

func (h *CountryHandlers) GetTopByArea(w http.ResponseWriter, r *http.Request) {
	countries, err := h.Service.TopByArea(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, countries)
}

func (h *CountryHandlers) GetLatestGDP(w http.ResponseWriter, r *http.Request) {
	point, err := h.Service.LatestGDP(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, point)
}

func (h *CountryHandlers) GetGDPSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.Service.GDPSeries(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, series)
}

func (h *CountryHandlers) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GlobalStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}
