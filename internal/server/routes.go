package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter builds the routed, middleware-wrapped HTTP handler for the
// five endpoints spec.md §6 names.
func NewRouter(h *Handlers, cfg Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transcriptions/jobs", h.CreateJob)
	mux.HandleFunc("GET /v1/transcriptions/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /v1/transcriptions/jobs/{id}/result", h.GetResult)
	mux.HandleFunc("GET /v1/transcriptions/jobs/{id}/download", h.Download)
	mux.HandleFunc("POST /v1/transcriptions/jobs/{id}/cancel", h.Cancel)

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)
	return chain(mux)
}
