package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. When configFile is empty the
// standard search paths are used.
func New(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/mail-labeler/")
		v.AddConfigPath("$HOME/.mail-labeler")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_LABELER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Classifier defaults
	v.SetDefault("classifier.user_email", "")
	v.SetDefault("classifier.max_body_chars", 2000)
	v.SetDefault("classifier.skip_domains", []string{})

	// Label defaults: empty ids are resolved by name against the mailbox
	for key, name := range defaultLabelNames {
		v.SetDefault("labels."+key+".id", "")
		v.SetDefault("labels."+key+".name", name)
	}
	v.SetDefault("labels.create_missing", true)

	// Gmail defaults
	v.SetDefault("gmail.user_id", "me")
	v.SetDefault("gmail.credentials_path", "credentials.json")
	v.SetDefault("gmail.token_path", "token.json")
	v.SetDefault("gmail.history_max_results", 50)
	v.SetDefault("gmail.watch_label", "INBOX")
	v.SetDefault("gmail.request_timeout", "30s")
	v.SetDefault("gmail.breaker.max_requests", 3)
	v.SetDefault("gmail.breaker.interval", "60s")
	v.SetDefault("gmail.breaker.timeout", "30s")
	v.SetDefault("gmail.breaker.consecutive_failures", 5)

	// Orchestrator defaults
	v.SetDefault("orchestrator.batch_delay", "1s")
	v.SetDefault("orchestrator.poll_interval", "60s")
	v.SetDefault("orchestrator.start_history_id", 0)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "168h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/mail_labeler.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/mail_labeler?parseTime=true")

	// Metrics defaults
	v.SetDefault("metrics.listen_address", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetUint64 gets a uint64 value from the configuration
func (c *Config) GetUint64(key string) uint64 {
	return c.v.GetUint64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
