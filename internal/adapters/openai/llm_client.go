package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You are an email labeling assistant. Respond only with a single JSON object."

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client. baseURL may point at any
// OpenAI compatible endpoint; empty keeps the public API.
func NewOpenAIClient(
	apiKey string,
	baseURL string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Complete sends the prompt as a chat completion and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI completion received",
		zap.String("id", resp.ID),
		zap.String("model", c.modelName),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}
