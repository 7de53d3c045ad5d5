package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ledger interface {
	core.ResultRepository
	Stop()
}

func entryFor(id string, processed time.Time, ttl time.Duration) *core.ResultEntry {
	return &core.ResultEntry{
		MessageID:   id,
		LabelID:     "Label_7",
		LabelName:   "Receipts",
		Confidence:  core.ConfidenceHigh,
		Source:      core.SourceModel,
		ProcessedAt: processed,
		ExpiresAt:   processed.Add(ttl),
	}
}

func exerciseLedger(t *testing.T, l ledger, setNow func(time.Time)) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	setNow(base)

	_, err := l.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, l.Set(ctx, entryFor("m1", base, time.Hour)))
	require.NoError(t, l.Set(ctx, entryFor("m2", base, 2*time.Hour)))

	got, err := l.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Label_7", got.LabelID)
	assert.Equal(t, "Receipts", got.LabelName)
	assert.Equal(t, core.ConfidenceHigh, got.Confidence)
	assert.Equal(t, core.SourceModel, got.Source)
	assert.True(t, got.ProcessedAt.Equal(base))

	// Replacing keeps a single entry per message
	updated := entryFor("m1", base, time.Hour)
	updated.LabelID = "FYI_ID"
	require.NoError(t, l.Set(ctx, updated))
	got, err = l.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "FYI_ID", got.LabelID)

	setNow(base.Add(90 * time.Minute))
	_, err = l.Get(ctx, "m1")
	assert.ErrorIs(t, err, ErrExpired)

	require.NoError(t, l.Cleanup(ctx))
	_, err = l.Get(ctx, "m1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Get(ctx, "m2")
	assert.NoError(t, err)

	require.NoError(t, l.Delete(ctx, "m2"))
	_, err = l.Get(ctx, "m2")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, l.Set(ctx, &core.ResultEntry{}))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	exerciseLedger(t, c, func(now time.Time) {
		c.nowFunc = func() time.Time { return now }
	})
	assert.Equal(t, 0, c.Len())
}

func TestSQLiteCache(t *testing.T) {
	c, err := NewSQLiteCache(":memory:", zap.NewNop(), 0)
	require.NoError(t, err)
	defer c.Stop()

	exerciseLedger(t, c, func(now time.Time) {
		c.nowFunc = func() time.Time { return now }
	})
}

func TestStopIsIdempotent(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 10*time.Millisecond)
	c.Stop()
	c.Stop()
}
