package recommendation

import (
	"net/http"

	"worldatlas/internal/auth"
	"worldatlas/internal/response"
	"worldatlas/models"

	"go.uber.org/zap"
)

type RecommendationHandlers struct {
	Service *RecommendationService
	logger  *zap.Logger
}

func NewRecommendationHandlers(service *RecommendationService, logger *zap.Logger) *RecommendationHandlers {
	return &RecommendationHandlers{Service: service, logger: logger}
}

type recommendationsResponse struct {
	Recommendations []*models.Country `json:"recommendations"`
}

func (h *RecommendationHandlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	countries, err := h.Service.Recommend(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to compute recommendations", zap.String("user_id", userID), zap.Error(err))
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, recommendationsResponse{Recommendations: countries})
}
