package favorite

import (
	"net/http"

	"worldatlas/internal/auth"
	"worldatlas/internal/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type FavoriteHandlers struct {
	Service *FavoriteService
	logger  *zap.Logger
}

func NewFavoriteHandlers(service *FavoriteService, logger *zap.Logger) *FavoriteHandlers {
	return &FavoriteHandlers{Service: service, logger: logger}
}

func (h *FavoriteHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("favorite request failed", zap.String("path", r.URL.Path), zap.Error(err))
	response.FromError(w, err, response.Is(ErrInvalidInput, http.StatusBadRequest))
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

func (h *FavoriteHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	countries, err := h.Service.List(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, countries)
}

func (h *FavoriteHandlers) ListCodes(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	codes, err := h.Service.Codes(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, codes)
}

func (h *FavoriteHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	codes, err := h.Service.Add(r.Context(), id, mux.Vars(r)["code"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Added to favorites", codes)
}

func (h *FavoriteHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	codes, err := h.Service.Remove(r.Context(), id, mux.Vars(r)["code"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Removed from favorites", codes)
}
