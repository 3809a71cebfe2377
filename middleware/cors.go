package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

func SetupCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
