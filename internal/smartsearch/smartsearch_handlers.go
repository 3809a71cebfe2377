package smartsearch

import (
	"encoding/json"
	"errors"
	"net/http"

	"worldatlas/internal/ai"
	"worldatlas/internal/response"

	"go.uber.org/zap"
)

type SmartSearchHandlers struct {
	Service *SmartSearchService
	logger  *zap.Logger
}

func NewSmartSearchHandlers(service *SmartSearchService, logger *zap.Logger) *SmartSearchHandlers {
	return &SmartSearchHandlers{Service: service, logger: logger}
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *SmartSearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Search(r.Context(), req.Query)
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) {
			h.logger.Error("smart search failed", zap.Error(err))
		}
		response.FromError(w, err,
			response.Is(ErrInvalidInput, http.StatusBadRequest),
			response.Is(ai.ErrUpstream, http.StatusBadGateway),
		)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
