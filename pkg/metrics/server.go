package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/vivienda/pkg/logger"
)

// Server serves /metrics on its own port
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer creates a metrics server listening on addr
func NewServer(addr string, log *logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 15 * time.Second,
		},
		logger: log,
	}
}

// Start runs the server in the background
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("Starting metrics server")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Metrics server stopped")
		}
	}()
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
