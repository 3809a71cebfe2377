package travelstatus

import (
	"encoding/json"
	"net/http"

	"worldatlas/internal/auth"
	"worldatlas/internal/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type TravelStatusHandlers struct {
	Service *TravelStatusService
	logger  *zap.Logger
}

func NewTravelStatusHandlers(service *TravelStatusService, logger *zap.Logger) *TravelStatusHandlers {
	return &TravelStatusHandlers{Service: service, logger: logger}
}

func (h *TravelStatusHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("travel status request failed", zap.String("path", r.URL.Path), zap.Error(err))
	response.FromError(w, err,
		response.Is(ErrInvalidInput, http.StatusBadRequest),
		response.Is(ErrLivingConflict, http.StatusConflict),
	)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

func (h *TravelStatusHandlers) UpsertStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := h.Service.Upsert(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Travel status updated", status)
}

func (h *TravelStatusHandlers) ListStatuses(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	statuses, err := h.Service.List(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, statuses)
}

func (h *TravelStatusHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	status, err := h.Service.Get(r.Context(), id, mux.Vars(r)["code"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, status)
}

func (h *TravelStatusHandlers) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id, mux.Vars(r)["code"]); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Travel status removed", nil)
}
