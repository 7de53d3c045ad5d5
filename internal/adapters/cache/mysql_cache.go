package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the ResultRepository interface
type MySQLCache struct {
	*sqlLedger
}

// NewMySQLCache creates a new MySQL result ledger
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	err = execAll(db, `
		CREATE TABLE IF NOT EXISTS classification_results (
			message_id VARCHAR(255) PRIMARY KEY,
			label_id VARCHAR(255) NOT NULL,
			label_name VARCHAR(255) NOT NULL,
			confidence VARCHAR(16) NOT NULL,
			source VARCHAR(32) NOT NULL,
			processed_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_results_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create result ledger schema: %w", err)
	}

	return &MySQLCache{
		sqlLedger: newSQLLedger(db, logger, `
			INSERT INTO classification_results
				(message_id, label_id, label_name, confidence, source, processed_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				label_id = VALUES(label_id),
				label_name = VALUES(label_name),
				confidence = VALUES(confidence),
				source = VALUES(source),
				processed_at = VALUES(processed_at),
				expires_at = VALUES(expires_at)
		`, cleanupFreq),
	}, nil
}
