// Package httpserver constructs the process's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// Slow-loris guard; request deadlines belong to the handlers behind the
// router, not the server.
const readHeaderTimeout = 5 * time.Second

// New returns a server bound to addr serving handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
