package httpserver

import (
	"net/http"
	"time"

	"collegeportal/internal/platform/config"
)

// New builds the portal's HTTP server. Writes may take as long as the
// request timeout plus a margin for the response itself, since a
// verification upload blocks for the simulated verifier latency.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
