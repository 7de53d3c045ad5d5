package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfig(overrides map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestLLMFactoryProviders(t *testing.T) {
	client, err := NewLLMFactory(newConfig(map[string]any{"llm.provider": "none"}), zap.NewNop()).CreateLLMClient()
	require.NoError(t, err)
	assert.Nil(t, client)

	_, err = NewLLMFactory(newConfig(map[string]any{"llm.provider": "watson"}), zap.NewNop()).CreateLLMClient()
	assert.ErrorContains(t, err, "unsupported LLM provider")

	_, err = NewLLMFactory(newConfig(map[string]any{"llm.provider": "openai"}), zap.NewNop()).CreateLLMClient()
	assert.ErrorContains(t, err, "API key")

	f := NewLLMFactory(newConfig(map[string]any{"llm.provider": "OpenAI", "openai.api_key": "k"}), zap.NewNop())
	client, err = f.CreateLLMClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NoError(t, f.Close())
}

func TestCacheFactory(t *testing.T) {
	f := NewCacheFactory(newConfig(nil), zap.NewNop())
	repo, err := f.CreateResultRepository()
	require.NoError(t, err)
	require.NotNil(t, repo)
	f.Close()

	ttl, err := f.GetResultTTL()
	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, ttl)

	repo, err = NewCacheFactory(newConfig(map[string]any{"cache.enabled": false}), zap.NewNop()).CreateResultRepository()
	require.NoError(t, err)
	assert.Nil(t, repo)

	_, err = NewCacheFactory(newConfig(map[string]any{"cache.type": "redis"}), zap.NewNop()).CreateResultRepository()
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestCacheFactorySQLite(t *testing.T) {
	path := t.TempDir() + "/ledger/results.db"
	f := NewCacheFactory(newConfig(map[string]any{"cache.type": "sqlite", "cache.sqlite_path": path}), zap.NewNop())
	repo, err := f.CreateResultRepository()
	require.NoError(t, err)
	defer f.Close()

	now := time.Now()
	require.NoError(t, repo.Set(context.Background(), &core.ResultEntry{
		MessageID: "m1", LabelID: "FYI", ProcessedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	entry, err := repo.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "FYI", entry.LabelID)
}

type fakeResolver struct {
	called bool
	err    error
}

func (r *fakeResolver) ResolveLabels(_ context.Context, labels config.LabelsConfig) (map[core.LabelKey]string, error) {
	r.called = true
	if r.err != nil {
		return nil, r.err
	}
	ids := map[core.LabelKey]string{}
	for _, key := range core.LabelKeys {
		ids[key] = labels.IDs[key]
		if ids[key] == "" {
			ids[key] = "Label_" + string(key)
		}
	}
	return ids, nil
}

func TestTaxonomyFactoryResolvesMissingIDs(t *testing.T) {
	cfg := newConfig(map[string]any{"labels.receipts.id": "Label_99"})
	resolver := &fakeResolver{}

	tax, err := NewTaxonomyFactory(cfg, zap.NewNop()).CreateTaxonomy(context.Background(), resolver)
	require.NoError(t, err)
	assert.True(t, resolver.called)
	assert.Equal(t, "Label_99", tax.Get(core.LabelReceipts).ID)
	assert.Equal(t, "Label_FYI", tax.Get(core.LabelFYI).ID)
	assert.Equal(t, "Meeting Update", tax.Get(core.LabelMeetingUpdate).Name)
}

func TestTaxonomyFactoryWithoutResolver(t *testing.T) {
	tax, err := NewTaxonomyFactory(newConfig(nil), zap.NewNop()).CreateTaxonomy(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "TO_RESPOND", tax.Get(core.LabelToRespond).ID)
}

func TestTaxonomyFactoryResolverError(t *testing.T) {
	_, err := NewTaxonomyFactory(newConfig(nil), zap.NewNop()).CreateTaxonomy(context.Background(), &fakeResolver{err: errors.New("denied")})
	assert.ErrorContains(t, err, "denied")
}

func TestRunnerFactoryMonitorRunners(t *testing.T) {
	logger := zap.NewNop()
	engine := core.NewLabelDecisionEngine(nil, core.DefaultTaxonomy(), "", 100, utils.NewTextProcessor(logger), logger)
	service := core.NewClassificationService(nil, core.NewRelationshipAnalyzer(nil, logger), engine, nil, nil, logger, core.ServiceSettings{})

	cfg := newConfig(map[string]any{
		"orchestrator.start_history_id": 4242,
		"metrics.listen_address":        "127.0.0.1:0",
	})
	runners, err := NewRunnerFactory(cfg, logger, service, engine).CreateMonitorRunners()
	require.NoError(t, err)
	assert.Len(t, runners, 2)
	assert.Equal(t, uint64(4242), service.Cursor())

	runners, err = NewRunnerFactory(newConfig(nil), logger, service, engine).CreateMonitorRunners()
	require.NoError(t, err)
	assert.Len(t, runners, 1)
}
