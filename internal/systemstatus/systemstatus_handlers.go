package systemstatus

import (
	"net/http"

	"worldatlas/internal/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SystemStatusHandlers struct holds the system status service
type SystemStatusHandlers struct {
	Service *SystemStatusService
	logger  *zap.Logger
}

// NewSystemStatusHandlers creates new system status HTTP handlers
func NewSystemStatusHandlers(service *SystemStatusService, logger *zap.Logger) *SystemStatusHandlers {
	return &SystemStatusHandlers{Service: service, logger: logger}
}

func (h *SystemStatusHandlers) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.Service.GetStatus(r.Context()))
}

type clearResult struct {
	Removed int `json:"removed"`
}

// ClearCache empties a cache; ?key= limits it to one entry
func (h *SystemStatusHandlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	removed, err := h.Service.ClearCache(r.Context(), name, r.URL.Query().Get("key"))
	if err != nil {
		h.logger.Warn("cache clear failed", zap.String("cache", name), zap.Error(err))
		response.FromError(w, err)
		return
	}
	response.Message(w, http.StatusOK, "cache cleared", clearResult{Removed: removed})
}
