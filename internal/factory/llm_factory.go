package factory

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mikey/llm-mail-labeler/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-labeler/internal/adapters/gemini"
	"github.com/mikey/llm-mail-labeler/internal/adapters/openai"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// ProviderNone disables the model so every email goes through the fallback rules
const ProviderNone = "none"

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	client core.LLMClient
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration.
// The "none" provider yields a nil client.
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	provider := strings.ToLower(strings.TrimSpace(f.cfg.GetLLM().Provider))

	var client core.LLMClient
	var err error
	switch provider {
	case "bedrock":
		client, err = bedrock.NewFromConfig(context.Background(), f.cfg.GetBedrock(), f.logger)
	case "gemini":
		client, err = gemini.NewFromConfig(context.Background(), f.cfg.GetGemini(), f.logger)
	case "openai":
		client, err = openai.NewFromConfig(f.cfg.GetOpenAI(), f.logger)
	case ProviderNone, "":
		f.logger.Info("No LLM provider configured, using fallback rules only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	f.logger.Info("Created LLM client", zap.String("provider", provider))
	f.client = client
	return client, nil
}

// Close releases the created client if it holds resources
func (f *LLMFactory) Close() error {
	if closer, ok := f.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
