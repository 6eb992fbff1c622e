package middleware

import (
	"net/http"

	"queue-backend/internal/config"

	"github.com/rs/cors"
)

// NewCORS builds the CORS wrapper from configured origins. Kiosk displays
// and admin consoles are served from other hosts, so this is always on.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return c.Handler
}
