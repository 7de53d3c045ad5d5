package gemini

import (
	"context"
	"errors"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"go.uber.org/zap"
)

// NewFromConfig builds a client from the gemini config section
func NewFromConfig(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	return NewGeminiClient(ctx, cfg.APIKey, cfg.ModelName, cfg.MaxTokens, cfg.Temperature, cfg.TopP, logger)
}
