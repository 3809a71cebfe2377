package middleware

import (
	"net/http"

	"worldatlas/internal/auth"
	"worldatlas/internal/config"
	"worldatlas/internal/response"

	"go.uber.org/zap"
)

type Middleware struct {
	Config *config.Config
	logger *zap.Logger
}

func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{Config: cfg, logger: logger}
}

// AuthMiddleware verifies the bearer token and stores its user id in the
// request context
func (m *Middleware) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ParseBearer(m.Config.JwtKey, r.Header.Get("Authorization"))
		if err != nil {
			m.logger.Debug("rejected request", zap.String("path", r.URL.Path), zap.Error(err))
			response.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), claims.UserID)))
	})
}
