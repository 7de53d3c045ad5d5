package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestResponseTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"labelId":`),
				genai.Blob{MIMEType: "image/png"},
				genai.Text(`"FYI"}`),
			}}},
		},
	}
	assert.Equal(t, `{"labelId":"FYI"}`, responseText(resp))
}

func TestResponseTextEmpty(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{}},
	}))
}

func TestNewFromConfigRequiresAPIKey(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.NewFromViper(config.NewEmptyViper()).GetGemini(), zap.NewNop())
	assert.ErrorContains(t, err, "API key")
}
