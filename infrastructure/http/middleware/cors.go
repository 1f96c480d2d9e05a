package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the configured front-end origins. The refresh cookie needs
// credentials, so AllowCredentials is normally on.
func CORS(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", CorrelationIDHeader},
		ExposedHeaders:   []string{"Authorization", CorrelationIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           600,
	})
	return co.Handler
}
