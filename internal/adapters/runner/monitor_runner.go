package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// MonitorRunner drives the classification service's polling loop in the background
type MonitorRunner struct {
	service *core.ClassificationService
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

// NewMonitorRunner creates a new monitor runner
func NewMonitorRunner(service *core.ClassificationService, logger *zap.Logger) *MonitorRunner {
	return &MonitorRunner{
		service: service,
		logger:  logger,
	}
}

// Start launches the monitor loop
func (r *MonitorRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return errors.New("monitor already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan error, 1)

	go func() {
		r.done <- r.service.Monitor(ctx)
	}()
	return nil
}

// Stop cancels the monitor loop and waits for the in-flight poll to finish
func (r *MonitorRunner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	err := <-done
	r.logger.Info("Monitor runner stopped", zap.Uint64("cursor", r.service.Cursor()))
	return err
}
