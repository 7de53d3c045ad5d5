package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, 2000, cfg.GetClassifier().MaxBodyChars)
	assert.Empty(t, cfg.MetricsAddress())

	orchestrator, err := cfg.GetOrchestrator()
	require.NoError(t, err)
	assert.Equal(t, time.Second, orchestrator.BatchDelay)
	assert.Equal(t, time.Minute, orchestrator.PollInterval)

	gmail, err := cfg.GetGmail()
	require.NoError(t, err)
	assert.Equal(t, "me", gmail.UserID)
	assert.Equal(t, "INBOX", gmail.WatchLabel)
	assert.Equal(t, uint32(5), gmail.Breaker.ConsecutiveFailures)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, "memory", cache.Type)
	assert.Equal(t, 168*time.Hour, cache.TTL)

	labels := cfg.GetLabels()
	assert.True(t, labels.CreateMissing)
	assert.Equal(t, "Meeting Update", labels.Names[core.LabelMeetingUpdate])
	assert.Equal(t, core.LabelKeys, labels.Unresolved())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: bedrock
classifier:
  user_email: me@example.com
  skip_domains: [example.org]
labels:
  fyi:
    id: Label_9
  marketing:
    name: Promotions
orchestrator:
  poll_interval: 30s
`)
	t.Setenv("MAIL_LABELER_OPENAI_MODEL_NAME", "gpt-test")

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, "bedrock", cfg.GetLLM().Provider)
	assert.Equal(t, "gpt-test", cfg.GetOpenAI().ModelName)
	assert.Equal(t, "me@example.com", cfg.GetClassifier().UserEmail)
	assert.Equal(t, []string{"example.org"}, cfg.GetClassifier().SkipDomains)

	labels := cfg.GetLabels()
	assert.Equal(t, "Label_9", labels.IDs[core.LabelFYI])
	assert.Equal(t, "Promotions", labels.Names[core.LabelMarketing])
	assert.Equal(t, "To Respond", labels.Names[core.LabelToRespond])
	assert.NotContains(t, labels.Unresolved(), core.LabelFYI)
	assert.Len(t, labels.Unresolved(), len(core.LabelKeys)-1)

	orchestrator, err := cfg.GetOrchestrator()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, orchestrator.PollInterval)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestInvalidDurations(t *testing.T) {
	v := NewEmptyViper()
	v.Set("orchestrator.poll_interval", "0s")
	_, err := NewFromViper(v).GetOrchestrator()
	assert.ErrorContains(t, err, "must be positive")

	v.Set("orchestrator.poll_interval", "soon")
	_, err = NewFromViper(v).GetOrchestrator()
	assert.ErrorContains(t, err, "invalid duration for orchestrator.poll_interval")

	v.Set("gmail.request_timeout", "forever")
	_, err = NewFromViper(v).GetGmail()
	assert.Error(t, err)

	v.Set("cache.ttl", "")
	_, err = NewFromViper(v).GetCache()
	assert.Error(t, err)
}
