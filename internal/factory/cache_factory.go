package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/adapters/cache"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

type stopper interface {
	Stop()
}

// CacheFactory creates result ledgers based on configuration
type CacheFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	created stopper
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateResultRepository creates the ledger of processed messages. A disabled
// cache yields nil, which turns off duplicate detection in the monitor.
func (f *CacheFactory) CreateResultRepository() (core.ResultRepository, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, err
	}
	if !cacheCfg.Enabled {
		f.logger.Info("Result ledger disabled")
		return nil, nil
	}

	switch cacheCfg.Type {
	case "memory":
		c := cache.NewMemoryCache(f.logger, cacheCfg.CleanupFrequency)
		f.created = c
		return c, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		c, err := cache.NewSQLiteCache(cacheCfg.SQLitePath, f.logger, cacheCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		f.created = c
		return c, nil
	case "mysql":
		c, err := cache.NewMySQLCache(cacheCfg.MySQLDSN, f.logger, cacheCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		f.created = c
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

// GetResultTTL returns how long ledger entries are kept
func (f *CacheFactory) GetResultTTL() (time.Duration, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return 0, err
	}
	return cacheCfg.TTL, nil
}

// Close stops the ledger's cleanup task and closes its connection
func (f *CacheFactory) Close() {
	if f.created != nil {
		f.created.Stop()
		f.created = nil
	}
}
