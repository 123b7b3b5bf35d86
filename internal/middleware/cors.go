package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"propulsores/internal/config"
)

// CORS builds the cross-origin handler for the configured origins. The API is
// read-only, so only GET, HEAD and OPTIONS are allowed.
func CORS(cfg config.SecurityConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", RequestIDHeader},
		ExposedHeaders:   []string{"ETag", "Content-Disposition", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
	logger.Debug("CORS enabled",
		slog.String("component", "cors"),
		slog.Any("allowed_origins", cfg.AllowedOrigins))
	return c.Handler
}
