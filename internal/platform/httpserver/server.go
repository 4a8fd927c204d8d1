// Package httpserver wraps net/http server construction so timeouts stay
// consistent across binaries.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an *http.Server with sane timeouts for the given handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Writes may legitimately take several seconds: the intake pipeline
		// carries a deliberate delay stage for the VIP demo path and the test
		// error entry point simulates slow database queries.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
