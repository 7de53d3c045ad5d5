package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the ResultRepository interface
type SQLiteCache struct {
	*sqlLedger
}

// NewSQLiteCache creates a new SQLite result ledger
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer at a time
	db.SetMaxOpenConns(1)

	err = execAll(db,
		`CREATE TABLE IF NOT EXISTS classification_results (
			message_id TEXT PRIMARY KEY,
			label_id TEXT NOT NULL,
			label_name TEXT NOT NULL,
			confidence TEXT NOT NULL,
			source TEXT NOT NULL,
			processed_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_expires_at ON classification_results(expires_at)`,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create result ledger schema: %w", err)
	}

	return &SQLiteCache{
		sqlLedger: newSQLLedger(db, logger, `
			INSERT OR REPLACE INTO classification_results
				(message_id, label_id, label_name, confidence, source, processed_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, cleanupFreq),
	}, nil
}
