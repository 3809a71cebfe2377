package gdpprediction

import (
	"net/http"
	"strings"

	"worldatlas/internal/ai"
	"worldatlas/internal/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type GDPPredictionHandlers struct {
	Service *GDPPredictionService
	logger  *zap.Logger
}

func NewGDPPredictionHandlers(service *GDPPredictionService, logger *zap.Logger) *GDPPredictionHandlers {
	return &GDPPredictionHandlers{Service: service, logger: logger}
}

func (h *GDPPredictionHandlers) Predict(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"]))
	if code == "" {
		response.Error(w, http.StatusBadRequest, "country code is required")
		return
	}

	lang, err := ai.ParseLang(r.URL.Query().Get("lang"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	prediction, err := h.Service.Predict(r.Context(), code, lang)
	if err != nil {
		h.logger.Error("gdp prediction failed", zap.String("code", code), zap.Error(err))
		response.FromError(w, err,
			response.Is(ErrInsufficientData, http.StatusBadRequest),
			response.Is(ai.ErrUpstream, http.StatusBadGateway),
		)
		return
	}
	response.Message(w, http.StatusOK, "GDP prediction completed", prediction)
}
