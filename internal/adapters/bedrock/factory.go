package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"go.uber.org/zap"
)

// NewFromConfig builds a client on the default AWS credential chain for the configured region
func NewFromConfig(ctx context.Context, cfg config.BedrockConfig, logger *zap.Logger) (*BedrockClient, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("bedrock model id is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Debug("Using Bedrock model", zap.String("region", cfg.Region), zap.String("model_id", cfg.ModelID))
	return NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID, cfg.MaxTokens, cfg.Temperature, cfg.TopP, logger), nil
}
