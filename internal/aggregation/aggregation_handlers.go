package aggregation

import (
	"net/http"

	"worldatlas/internal/response"

	"go.uber.org/zap"
)

type AggregationHandlers struct {
	Service *AggregationService
	logger  *zap.Logger
}

func NewAggregationHandlers(service *AggregationService, logger *zap.Logger) *AggregationHandlers {
	return &AggregationHandlers{Service: service, logger: logger}
}

func (h *AggregationHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("aggregation request failed", zap.String("path", r.URL.Path), zap.Error(err))
	response.FromError(w, err, response.Is(ErrInvalidInput, http.StatusBadRequest))
}

func (h *AggregationHandlers) GetRegionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.RegionStats(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func (h *AggregationHandlers) GetRegionExtremes(w http.ResponseWriter, r *http.Request) {
	extremes, err := h.Service.RegionExtremes(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, extremes)
}

func (h *AggregationHandlers) RecomputeRegions(w http.ResponseWriter, r *http.Request) {
	rollups, err := h.Service.RecomputeRegions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "region rollups recomputed", rollups)
}

func (h *AggregationHandlers) GetLanguageDistribution(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.LanguageDistribution(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, counts)
}
