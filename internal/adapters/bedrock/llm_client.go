package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

const anthropicVersion = "bedrock-2023-05-31"

// ModelInvoker is the subset of the Bedrock runtime API the client uses
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the LLMClient interface using Amazon Bedrock
type BedrockClient struct {
	client      ModelInvoker
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client ModelInvoker,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *BedrockClient {
	return &BedrockClient{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Complete invokes the configured model with a body in the model family's format
func (c *BedrockClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := c.requestBody(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := c.responseText(resp.Body)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Bedrock completion received",
		zap.String("model_id", c.modelID),
		zap.Int("response_size", len(text)))

	return text, nil
}

func (c *BedrockClient) requestBody(prompt string) ([]byte, error) {
	switch {
	case c.isAnthropicModel():
		return json.Marshal(map[string]any{
			"anthropic_version": anthropicVersion,
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"messages": []map[string]any{
				{
					"role":    "user",
					"content": []map[string]string{{"type": "text", "text": prompt}},
				},
			},
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]any{
			"inputText": prompt,
			"textGenerationConfig": map[string]any{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]any{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

func (c *BedrockClient) responseText(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var sb strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return "", errors.New("empty response from Claude model")
		}
		return sb.String(), nil

	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", errors.New("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Generation string `json:"generation"`
			Response   string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Generation, genericResp.Response} {
			if candidate != "" {
				return candidate, nil
			}
		}
		// Let the response parser look at whatever came back
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.Contains(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
