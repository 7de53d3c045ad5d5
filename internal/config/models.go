package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
)

var defaultLabelNames = func() map[string]string {
	names := make(map[string]string, len(core.LabelKeys))
	for _, key := range core.LabelKeys {
		names[labelConfigKey(key)] = core.DefaultLabelNames[key]
	}
	return names
}()

func labelConfigKey(key core.LabelKey) string {
	return strings.ToLower(string(key))
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// ClassifierConfig represents the decision engine settings
type ClassifierConfig struct {
	UserEmail    string
	MaxBodyChars int
	SkipDomains  []string
}

// LabelsConfig holds provider ids and display names for the taxonomy
type LabelsConfig struct {
	IDs           map[core.LabelKey]string
	Names         map[core.LabelKey]string
	CreateMissing bool
}

// Unresolved returns the keys that have no provider id configured
func (l LabelsConfig) Unresolved() []core.LabelKey {
	var keys []core.LabelKey
	for _, key := range core.LabelKeys {
		if l.IDs[key] == "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// BreakerConfig represents circuit breaker settings for mailbox calls
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// GmailConfig represents the configuration for the Gmail mailbox
type GmailConfig struct {
	UserID            string
	CredentialsPath   string
	TokenPath         string
	HistoryMaxResults int64
	WatchLabel        string
	RequestTimeout    time.Duration
	Breaker           BreakerConfig
}

// OrchestratorConfig represents batch and monitor timing
type OrchestratorConfig struct {
	BatchDelay     time.Duration
	PollInterval   time.Duration
	StartHistoryID uint64
}

// CacheConfig represents the result ledger configuration
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		UserEmail:    c.GetString("classifier.user_email"),
		MaxBodyChars: c.GetInt("classifier.max_body_chars"),
		SkipDomains:  c.GetStringSlice("classifier.skip_domains"),
	}
}

// GetLabels returns the label taxonomy configuration
func (c *Config) GetLabels() LabelsConfig {
	cfg := LabelsConfig{
		IDs:           make(map[core.LabelKey]string, len(core.LabelKeys)),
		Names:         make(map[core.LabelKey]string, len(core.LabelKeys)),
		CreateMissing: c.GetBool("labels.create_missing"),
	}
	for _, key := range core.LabelKeys {
		prefix := "labels." + labelConfigKey(key)
		cfg.IDs[key] = strings.TrimSpace(c.GetString(prefix + ".id"))
		cfg.Names[key] = strings.TrimSpace(c.GetString(prefix + ".name"))
	}
	return cfg
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() (GmailConfig, error) {
	timeout, err := c.GetDuration("gmail.request_timeout")
	if err != nil {
		return GmailConfig{}, err
	}
	interval, err := c.GetDuration("gmail.breaker.interval")
	if err != nil {
		return GmailConfig{}, err
	}
	breakerTimeout, err := c.GetDuration("gmail.breaker.timeout")
	if err != nil {
		return GmailConfig{}, err
	}

	return GmailConfig{
		UserID:            c.GetString("gmail.user_id"),
		CredentialsPath:   c.GetString("gmail.credentials_path"),
		TokenPath:         c.GetString("gmail.token_path"),
		HistoryMaxResults: c.GetInt64("gmail.history_max_results"),
		WatchLabel:        c.GetString("gmail.watch_label"),
		RequestTimeout:    timeout,
		Breaker: BreakerConfig{
			MaxRequests:         uint32(c.GetInt("gmail.breaker.max_requests")),
			Interval:            interval,
			Timeout:             breakerTimeout,
			ConsecutiveFailures: uint32(c.GetInt("gmail.breaker.consecutive_failures")),
		},
	}, nil
}

// GetOrchestrator returns the orchestrator configuration
func (c *Config) GetOrchestrator() (OrchestratorConfig, error) {
	batchDelay, err := c.GetDuration("orchestrator.batch_delay")
	if err != nil {
		return OrchestratorConfig{}, err
	}
	pollInterval, err := c.GetDuration("orchestrator.poll_interval")
	if err != nil {
		return OrchestratorConfig{}, err
	}
	if pollInterval <= 0 {
		return OrchestratorConfig{}, fmt.Errorf("orchestrator.poll_interval must be positive, got %s", pollInterval)
	}

	return OrchestratorConfig{
		BatchDelay:     batchDelay,
		PollInterval:   pollInterval,
		StartHistoryID: c.GetUint64("orchestrator.start_history_id"),
	}, nil
}

// GetCache returns the result ledger configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// MetricsAddress returns the listen address for the metrics endpoint, empty when disabled
func (c *Config) MetricsAddress() string {
	return c.GetString("metrics.listen_address")
}
