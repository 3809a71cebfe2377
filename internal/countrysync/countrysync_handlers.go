package countrysync

import (
	"net/http"

	"worldatlas/internal/response"

	"go.uber.org/zap"
)

type CountrySyncHandlers struct {
	Service *CountrySyncService
	logger  *zap.Logger
}

func NewCountrySyncHandlers(service *CountrySyncService, logger *zap.Logger) *CountrySyncHandlers {
	return &CountrySyncHandlers{Service: service, logger: logger}
}

func (h *CountrySyncHandlers) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Sync(r.Context())
	if err != nil {
		h.logger.Error("country sync failed", zap.Error(err))
		response.FromError(w, err, response.Is(ErrSource, http.StatusBadGateway))
		return
	}
	response.Message(w, http.StatusOK, "countries synchronized", report)
}
