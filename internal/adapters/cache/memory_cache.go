package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no entry exists for a message
	ErrNotFound = errors.New("result entry not found")
	// ErrExpired is returned when an entry exists but its TTL has passed
	ErrExpired = errors.New("result entry expired")
)

// MemoryCache is an in-memory implementation of the ResultRepository interface
type MemoryCache struct {
	entries map[string]core.ResultEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	cleanup *cleanupTask
	nowFunc func() time.Time
}

// NewMemoryCache creates a new in-memory result ledger
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries: make(map[string]core.ResultEntry),
		logger:  logger,
		nowFunc: time.Now,
	}
	cache.cleanup = startCleanupTask(cleanupFreq, cache.Cleanup, logger)
	return cache
}

// Get retrieves the entry for a message
func (c *MemoryCache) Get(_ context.Context, messageID string) (*core.ResultEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[messageID]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.nowFunc().Before(entry.ExpiresAt) {
		return nil, ErrExpired
	}
	return &entry, nil
}

// Set stores an entry, replacing any previous one for the message
func (c *MemoryCache) Set(_ context.Context, entry *core.ResultEntry) error {
	if entry == nil || entry.MessageID == "" {
		return errors.New("result entry requires a message id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.MessageID] = *entry
	return nil
}

// Delete removes an entry
func (c *MemoryCache) Delete(_ context.Context, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, messageID)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	expiredCount := 0
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired result entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.cleanup.stop()
}
