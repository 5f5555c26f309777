// Package diag provides a small HTTP diagnostics server exposing client
// session state and Prometheus metrics. Modeled on
// aluo96078-vkvm/internal/api/server.go's mux/middleware shape, trimmed
// to the read-only surface this client needs (no remote switching, no
// websocket control channel).
package diag

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inputshare/internal/obs"
	"inputshare/internal/session"
)

// StatusProvider is the subset of *session.Session the status endpoint
// needs. Defined here, rather than imported as a concrete type, so tests
// can exercise handleStatus without a live session. Snapshot is the only
// safe way to read session state from this package's goroutine: the
// session itself is driven exclusively by its event loop.
type StatusProvider interface {
	Snapshot() session.Status
}

// Server is the diagnostics HTTP server.
type Server struct {
	sess StatusProvider
	name string
}

// New creates a Server reporting on sess.
func New(name string, sess StatusProvider) *Server {
	return &Server{sess: sess, name: name}
}

// Serve listens on addr and blocks until the listener fails or is closed.
// Like vkvm's api.Server.Start, the listener is created explicitly with
// "tcp4" to sidestep IPv6-only binding surprises.
func (s *Server) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return fmt.Errorf("diag: listen %s: %w", addr, err)
	}

	obs.Info("diagnostics server listening", obs.Fields{"addr": addr})

	httpServer := &http.Server{Handler: s.recoverMiddleware(mux)}
	if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// recoverMiddleware keeps a handler panic from taking down the process.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				obs.Error("diag handler panic", obs.Fields{"error": fmt.Sprint(err)})
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.sess.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":      s.name,
		"state":     snap.State.String(),
		"ready":     snap.Ready,
		"active":    snap.Active,
		"suspended": snap.Suspended,
	})
}
