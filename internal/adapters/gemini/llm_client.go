package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"

	return &GeminiClient{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete generates content for the prompt and returns the concatenated text parts
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("empty response from Gemini")
	}

	c.logger.Debug("Gemini completion received",
		zap.String("model", c.modelName),
		zap.Int("response_size", len(text)))

	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
