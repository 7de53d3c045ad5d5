package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// sqlLedger holds the queries shared by the SQL backed ledgers. Timestamps
// are stored as unix nanoseconds so both dialects compare them the same way.
type sqlLedger struct {
	db        *sql.DB
	logger    *zap.Logger
	upsertSQL string
	cleanup   *cleanupTask
	nowFunc   func() time.Time
}

func newSQLLedger(db *sql.DB, logger *zap.Logger, upsertSQL string, cleanupFreq time.Duration) *sqlLedger {
	l := &sqlLedger{
		db:        db,
		logger:    logger,
		upsertSQL: upsertSQL,
		nowFunc:   time.Now,
	}
	l.cleanup = startCleanupTask(cleanupFreq, l.Cleanup, logger)
	return l
}

// Get retrieves the entry for a message
func (l *sqlLedger) Get(ctx context.Context, messageID string) (*core.ResultEntry, error) {
	var entry core.ResultEntry
	var confidence, source string
	var processedAt, expiresAt int64

	err := l.db.QueryRowContext(ctx, `
		SELECT message_id, label_id, label_name, confidence, source, processed_at, expires_at
		FROM classification_results
		WHERE message_id = ?
	`, messageID).Scan(&entry.MessageID, &entry.LabelID, &entry.LabelName, &confidence, &source, &processedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query result ledger: %w", err)
	}

	entry.Confidence = core.Confidence(confidence)
	entry.Source = core.DecisionSource(source)
	entry.ProcessedAt = time.Unix(0, processedAt)
	entry.ExpiresAt = time.Unix(0, expiresAt)

	if !l.nowFunc().Before(entry.ExpiresAt) {
		return nil, ErrExpired
	}
	return &entry, nil
}

// Set stores an entry, replacing any previous one for the message
func (l *sqlLedger) Set(ctx context.Context, entry *core.ResultEntry) error {
	if entry == nil || entry.MessageID == "" {
		return errors.New("result entry requires a message id")
	}

	_, err := l.db.ExecContext(ctx, l.upsertSQL,
		entry.MessageID,
		entry.LabelID,
		entry.LabelName,
		string(entry.Confidence),
		string(entry.Source),
		entry.ProcessedAt.UnixNano(),
		entry.ExpiresAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store result entry: %w", err)
	}
	return nil
}

// Delete removes an entry
func (l *sqlLedger) Delete(ctx context.Context, messageID string) error {
	_, err := l.db.ExecContext(ctx, `
		DELETE FROM classification_results
		WHERE message_id = ?
	`, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete result entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (l *sqlLedger) Cleanup(ctx context.Context) error {
	result, err := l.db.ExecContext(ctx, `
		DELETE FROM classification_results
		WHERE expires_at <= ?
	`, l.nowFunc().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		l.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		l.logger.Debug("Cleaned up expired result entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (l *sqlLedger) Stop() {
	l.cleanup.stop()
	if err := l.db.Close(); err != nil {
		l.logger.Error("Failed to close result ledger database", zap.Error(err))
	}
}

func execAll(db *sql.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
