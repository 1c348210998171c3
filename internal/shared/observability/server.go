// # internal/shared/observability/server.go
package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health is answered on /health. Detail carries component states (history
// store, renderer) supplied by the caller.
type Health struct {
	Status string            `json:"status"`
	Detail map[string]string `json:"detail,omitempty"`
}

// Server exposes /metrics and /health on a loopback port while the bridge
// or watcher runs.
type Server struct {
	addr   string
	check  func(ctx context.Context) Health
	server *http.Server
}

func NewServer(addr string, check func(ctx context.Context) Health) *Server {
	if check == nil {
		check = func(context.Context) Health { return Health{Status: "up"} }
	}
	return &Server{addr: addr, check: check}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := s.check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if health.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(health)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
