package api

import (
	"net"
	"net/http"
	"time"

	"github.com/lumierecia/restaurant-pos/pkg/config"
)

// NewServer wraps handler with the listener timeouts cmd/api serves with.
// WriteTimeout stays above the placement timeout so a slow placement still
// gets its response written.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	write := 15 * time.Second
	if t := cfg.Orders.PlacementTimeout + 5*time.Second; t > write {
		write = t
	}
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
	}
}
