package openai

import (
	"errors"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"go.uber.org/zap"
)

// NewFromConfig builds a client from the openai config section. A base URL
// without a key targets a local compatible server.
func NewFromConfig(cfg config.OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("openai API key is required")
	}
	return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.ModelName, cfg.MaxTokens, cfg.Temperature, cfg.TopP, logger), nil
}
