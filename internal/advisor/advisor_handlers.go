package advisor

import (
	"encoding/json"
	"net/http"

	"worldatlas/internal/ai"
	"worldatlas/internal/response"

	"go.uber.org/zap"
)

type AdvisorHandlers struct {
	Service *AdvisorService
	logger  *zap.Logger
}

func NewAdvisorHandlers(service *AdvisorService, logger *zap.Logger) *AdvisorHandlers {
	return &AdvisorHandlers{Service: service, logger: logger}
}

type travelRequest struct {
	Preferences string `json:"preferences"`
	Lang        string `json:"lang"`
}

type chatRequest struct {
	Question string        `json:"question"`
	History  []ai.ChatTurn `json:"history"`
	Lang     string        `json:"lang"`
}

type compareRequest struct {
	Countries []string `json:"countries"`
	Lang      string   `json:"lang"`
}

// decode reads the JSON body into v and validates lang. It writes the
// error response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v interface{}, lang *string) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	parsed, err := ai.ParseLang(*lang)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	*lang = parsed
	return true
}

func (h *AdvisorHandlers) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("advisor request failed", zap.String("op", op), zap.Error(err))
	response.FromError(w, err,
		response.Is(ErrInvalidInput, http.StatusBadRequest),
		response.Is(ai.ErrUpstream, http.StatusBadGateway),
	)
}

func (h *AdvisorHandlers) Travel(w http.ResponseWriter, r *http.Request) {
	var req travelRequest
	if !decode(w, r, &req, &req.Lang) {
		return
	}
	result, err := h.Service.Travel(r.Context(), req.Preferences, req.Lang)
	if err != nil {
		h.fail(w, "travel", err)
		return
	}
	response.Message(w, http.StatusOK, "Recommendations generated", result)
}

func (h *AdvisorHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req, &req.Lang) {
		return
	}
	result, err := h.Service.Chat(r.Context(), req.Question, req.History, req.Lang)
	if err != nil {
		h.fail(w, "chat", err)
		return
	}
	response.Message(w, http.StatusOK, "Response generated", result)
}

func (h *AdvisorHandlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decode(w, r, &req, &req.Lang) {
		return
	}
	result, err := h.Service.Compare(r.Context(), req.Countries, req.Lang)
	if err != nil {
		h.fail(w, "compare", err)
		return
	}
	response.Message(w, http.StatusOK, "Comparison generated", result)
}
