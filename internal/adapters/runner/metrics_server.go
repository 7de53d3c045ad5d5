package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsServer exposes Prometheus metrics over HTTP
type MetricsServer struct {
	addr     string
	logger   *zap.Logger
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewMetricsServer creates a metrics server for addr
func NewMetricsServer(addr string, logger *zap.Logger) *MetricsServer {
	return &MetricsServer{
		addr:   addr,
		logger: logger,
	}
}

// Addr returns the bound address once started
func (s *MetricsServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves /metrics in the background
func (s *MetricsServer) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.listener = listener
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	s.logger.Info("Metrics server listening", zap.String("address", s.Addr()))
	return nil
}

// Stop shuts the server down gracefully
func (s *MetricsServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	<-s.done
	s.server = nil
	return err
}
