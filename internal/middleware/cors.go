package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORSMiddleware lets browser clients on any origin reach the relay and
// read the request id of each response.
func NewCORSMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:       []string{requestIDHeader},
		OptionsSuccessStatus: http.StatusNoContent,
		MaxAge:               300,
	})
}
