package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cleanupTask periodically removes expired entries until stopped
type cleanupTask struct {
	stopCh chan struct{}
	once   sync.Once
	done   chan struct{}
}

// startCleanupTask runs fn every freq. A non-positive freq disables the task.
func startCleanupTask(freq time.Duration, fn func(context.Context) error, logger *zap.Logger) *cleanupTask {
	task := &cleanupTask{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if freq <= 0 {
		close(task.done)
		return task
	}

	go func() {
		defer close(task.done)
		ticker := time.NewTicker(freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := fn(context.Background()); err != nil {
					logger.Error("Failed to clean up result ledger", zap.Error(err))
				}
			case <-task.stopCh:
				return
			}
		}
	}()
	return task
}

func (t *cleanupTask) stop() {
	t.once.Do(func() { close(t.stopCh) })
	<-t.done
}
