package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-mail-labeler/internal/metrics"
	"github.com/mikey/llm-mail-labeler/internal/skiplist"
	"go.uber.org/zap"
)

// Failure stages reported in results and metrics
const (
	stageFetch = "fetch"
	stageApply = "apply"
	stagePanic = "panic"
)

// ServiceSettings holds the orchestrator's timing and ledger configuration
type ServiceSettings struct {
	BatchDelay   time.Duration
	PollInterval time.Duration
	ResultTTL    time.Duration
}

// ClassificationService sequences fetch, analysis, decision and label apply
// for each message, in batch or monitoring mode
type ClassificationService struct {
	mailbox  Mailbox
	analyzer *RelationshipAnalyzer
	engine   *LabelDecisionEngine
	results  ResultRepository
	skip     *skiplist.Checker
	logger   *zap.Logger
	settings ServiceSettings
	cursor   atomic.Uint64
}

// NewClassificationService creates a new classification service.
// results and skip may be nil.
func NewClassificationService(
	mailbox Mailbox,
	analyzer *RelationshipAnalyzer,
	engine *LabelDecisionEngine,
	results ResultRepository,
	skip *skiplist.Checker,
	logger *zap.Logger,
	settings ServiceSettings,
) *ClassificationService {
	return &ClassificationService{
		mailbox:  mailbox,
		analyzer: analyzer,
		engine:   engine,
		results:  results,
		skip:     skip,
		logger:   logger,
		settings: settings,
	}
}

// Classify runs analysis and the label decision without touching the mailbox
func (s *ClassificationService) Classify(ctx context.Context, email *Email) (RelationshipAnalysis, Classification) {
	analysis := s.analyzer.Analyze(ctx, email)
	classification := s.engine.Decide(ctx, email, analysis)
	return analysis, classification
}

// ClassifyMessage fetches, classifies and labels one message. Every failure
// is reported in the result; nothing is returned as an error.
func (s *ClassificationService) ClassifyMessage(ctx context.Context, messageID, runID string) (result ClassificationResult) {
	result = ClassificationResult{
		MessageID: messageID,
		RunID:     runID,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic while classifying message",
				zap.String("message_id", messageID),
				zap.Any("panic", r))
			s.fail(&result, stagePanic, fmt.Errorf("panic: %v", r))
		}
		result.ProcessedAt = time.Now()
	}()

	email, err := s.mailbox.GetEmail(ctx, messageID)
	if err != nil {
		s.fail(&result, stageFetch, fmt.Errorf("failed to fetch message: %w", err))
		s.forget(ctx, messageID)
		return result
	}

	if s.skip.IsSkipped(email.From.Email) {
		metrics.SkippedTotal.WithLabelValues("skip_list").Inc()
		s.logger.Info("Skipping message from excluded domain",
			zap.String("message_id", messageID),
			zap.String("sender", email.From.Email))
		result.Status = StatusSkipped
		result.Success = true
		return result
	}

	_, classification := s.Classify(ctx, email)
	result.Classification = &classification
	metrics.ClassificationsTotal.WithLabelValues(classification.LabelID, string(classification.Source)).Inc()

	if email.HasLabel(classification.LabelID) {
		s.logger.Debug("Label already present, not applying again",
			zap.String("message_id", messageID),
			zap.String("label_id", classification.LabelID))
	} else {
		if err := s.mailbox.ApplyLabel(ctx, messageID, classification.LabelID); err != nil {
			s.fail(&result, stageApply, fmt.Errorf("failed to apply label %s: %w", classification.LabelID, err))
			s.forget(ctx, messageID)
			return result
		}
		metrics.LabelsAppliedTotal.Inc()
		result.LabelApplied = true
	}

	result.Status = StatusLabeled
	result.Success = true
	s.record(ctx, messageID, classification)

	s.logger.Info("Classified message",
		zap.String("message_id", messageID),
		zap.String("run_id", runID),
		zap.String("label", classification.LabelName),
		zap.String("label_id", classification.LabelID),
		zap.String("confidence", string(classification.Confidence)),
		zap.String("source", string(classification.Source)),
		zap.String("reasoning", classification.Reasoning))

	return result
}

func (s *ClassificationService) fail(result *ClassificationResult, stage string, err error) {
	metrics.ClassificationFailuresTotal.WithLabelValues(stage).Inc()
	s.logger.Error("Failed to process message",
		zap.String("message_id", result.MessageID),
		zap.String("stage", stage),
		zap.Error(err))
	result.Status = StatusFailed
	result.Success = false
	result.Error = err.Error()
}

// forget drops a stale ledger entry so the monitor retries the message
func (s *ClassificationService) forget(ctx context.Context, messageID string) {
	if s.results == nil {
		return
	}
	if err := s.results.Delete(ctx, messageID); err != nil {
		s.logger.Debug("Failed to delete classification result",
			zap.String("message_id", messageID),
			zap.Error(err))
	}
}

func (s *ClassificationService) record(ctx context.Context, messageID string, c Classification) {
	if s.results == nil {
		return
	}
	now := time.Now()
	entry := &ResultEntry{
		MessageID:   messageID,
		LabelID:     c.LabelID,
		LabelName:   c.LabelName,
		Confidence:  c.Confidence,
		Source:      c.Source,
		ProcessedAt: now,
		ExpiresAt:   now.Add(s.settings.ResultTTL),
	}
	if err := s.results.Set(ctx, entry); err != nil {
		s.logger.Error("Failed to record classification result", zap.Error(err))
	}
}

// alreadyProcessed reports whether the ledger holds a live entry for the message
func (s *ClassificationService) alreadyProcessed(ctx context.Context, messageID string) bool {
	if s.results == nil {
		return false
	}
	entry, err := s.results.Get(ctx, messageID)
	return err == nil && entry != nil
}

// ClassifyBatch processes message ids sequentially with a fixed delay between
// items. A failed item never stops the batch; cancellation stops it between items.
func (s *ClassificationService) ClassifyBatch(ctx context.Context, messageIDs []string) []ClassificationResult {
	runID := uuid.NewString()
	results := make([]ClassificationResult, 0, len(messageIDs))

	s.logger.Info("Starting batch classification",
		zap.String("run_id", runID),
		zap.Int("count", len(messageIDs)))

	for i, id := range messageIDs {
		if i > 0 && !s.wait(ctx, s.settings.BatchDelay) {
			s.logger.Warn("Batch cancelled", zap.String("run_id", runID), zap.Int("processed", i))
			break
		}
		results = append(results, s.ClassifyMessage(ctx, id, runID))
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	s.logger.Info("Batch classification complete",
		zap.String("run_id", runID),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(results)-succeeded))

	return results
}

// Cursor returns the last processed mailbox history id
func (s *ClassificationService) Cursor() uint64 {
	return s.cursor.Load()
}

// SetCursor seeds the monitor with a known history id
func (s *ClassificationService) SetCursor(cursor uint64) {
	s.cursor.Store(cursor)
	metrics.HistoryCursor.Set(float64(cursor))
}

// Monitor polls the mailbox for new messages until ctx is cancelled.
// After a failed poll the next wait is doubled once.
func (s *ClassificationService) Monitor(ctx context.Context) error {
	s.logger.Info("Starting mailbox monitor",
		zap.Duration("poll_interval", s.settings.PollInterval),
		zap.Uint64("cursor", s.Cursor()))

	for {
		_, err := s.Poll(ctx)
		if err != nil && !IsCancelled(err) {
			s.logger.Error("Mailbox poll failed", zap.Error(err))
		}

		if !s.wait(ctx, s.nextPollDelay(err)) {
			s.logger.Info("Mailbox monitor stopped", zap.Uint64("cursor", s.Cursor()))
			return nil
		}
	}
}

func (s *ClassificationService) nextPollDelay(pollErr error) time.Duration {
	if pollErr != nil {
		return 2 * s.settings.PollInterval
	}
	return s.settings.PollInterval
}

// Poll runs one monitoring cycle. The first call only records the current
// cursor; later calls classify messages added since the cursor and advance it
// once every classified message succeeded.
func (s *ClassificationService) Poll(ctx context.Context) ([]ClassificationResult, error) {
	cursor := s.Cursor()
	if cursor == 0 {
		current, err := s.mailbox.CurrentCursor(ctx)
		if err != nil {
			metrics.PollsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to read mailbox cursor: %w", err)
		}
		s.SetCursor(current)
		metrics.PollsTotal.WithLabelValues("ok").Inc()
		s.logger.Info("Monitor cursor initialized", zap.Uint64("cursor", current))
		return nil, nil
	}

	ids, next, err := s.mailbox.Changes(ctx, cursor)
	if err != nil {
		metrics.PollsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to list mailbox changes since %d: %w", cursor, err)
	}
	metrics.PollsTotal.WithLabelValues("ok").Inc()

	runID := uuid.NewString()
	results := make([]ClassificationResult, 0, len(ids))
	failed := 0
	for i, id := range ids {
		if s.alreadyProcessed(ctx, id) {
			metrics.SkippedTotal.WithLabelValues("already_processed").Inc()
			continue
		}
		if i > 0 && !s.wait(ctx, s.settings.BatchDelay) {
			return results, ctx.Err()
		}
		result := s.ClassifyMessage(ctx, id, runID)
		if !result.Success {
			failed++
		}
		results = append(results, result)
	}

	// A failed item keeps the cursor so the next poll sees it again
	if failed > 0 {
		s.logger.Warn("Keeping cursor until failed messages succeed",
			zap.String("run_id", runID),
			zap.Int("failed", failed),
			zap.Uint64("cursor", cursor))
	} else if next > cursor {
		s.SetCursor(next)
	}

	if len(ids) > 0 {
		s.logger.Info("Processed new messages",
			zap.String("run_id", runID),
			zap.Int("new", len(ids)),
			zap.Int("classified", len(results)),
			zap.Uint64("cursor", s.Cursor()))
	}
	return results, nil
}

// wait sleeps for d unless ctx is cancelled first
func (s *ClassificationService) wait(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// IsCancelled reports whether err is a context cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
