package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mikey/llm-mail-labeler/internal/metrics"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func newEngine(client LLMClient, maxBodyChars int) *LabelDecisionEngine {
	return NewLabelDecisionEngine(client, DefaultTaxonomy(), "me@example.com", maxBodyChars,
		utils.NewTextProcessor(zap.NewNop()), zap.NewNop())
}

func TestParseModelResponse(t *testing.T) {
	taxonomy := DefaultTaxonomy()

	got, err := ParseModelResponse(`Sure! {"labelId": "MARKETING", "labelName": "Marketing", "confidence": "high", "reasoning": "promo"} hope that helps`, taxonomy)
	require.NoError(t, err)
	assert.Equal(t, Classification{
		LabelID:    "MARKETING",
		LabelName:  "Marketing",
		Confidence: ConfidenceHigh,
		Reasoning:  "promo",
		Source:     SourceModel,
	}, got)

	got, err = ParseModelResponse(`{"labelId": "RECEIPTS"}`, taxonomy)
	require.NoError(t, err)
	assert.Equal(t, "Receipts", got.LabelName)
	assert.Equal(t, ConfidenceMedium, got.Confidence)
	assert.Equal(t, "No reasoning provided", got.Reasoning)

	got, err = ParseModelResponse(`{"labelId": "SPAM", "confidence": "certain"}`, taxonomy)
	require.NoError(t, err)
	assert.Equal(t, "SPAM", got.LabelID)
	assert.Equal(t, "SPAM", got.LabelName)
	assert.Equal(t, ConfidenceMedium, got.Confidence)
}

func TestParseModelResponseFirstObject(t *testing.T) {
	got, err := ParseModelResponse(`{"labelId": "FYI", "confidence": "HIGH"} and a trailing {note}`, DefaultTaxonomy())
	require.NoError(t, err)
	assert.Equal(t, "FYI", got.LabelID)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
	assert.Equal(t, SourceModel, got.Source)
}

func TestParseModelResponseSubstring(t *testing.T) {
	got, err := ParseModelResponse("I would file this under RECEIPTS.", DefaultTaxonomy())
	require.NoError(t, err)
	assert.Equal(t, "RECEIPTS", got.LabelID)
	assert.Equal(t, ConfidenceMedium, got.Confidence)
	assert.Equal(t, SourceModelSubstring, got.Source)

	got, err = ParseModelResponse(`{"confidence": "HIGH"} maybe TICKETS`, DefaultTaxonomy())
	require.NoError(t, err)
	assert.Equal(t, "TICKETS", got.LabelID)
	assert.Equal(t, SourceModelSubstring, got.Source)
}

func TestParseModelResponseErrors(t *testing.T) {
	_, err := ParseModelResponse("  \n", DefaultTaxonomy())
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ParseModelResponse("nothing useful here", DefaultTaxonomy())
	assert.ErrorIs(t, err, ErrUnparsableResponse)

	_, err = ParseModelResponse(`{"labelId": ""}`, DefaultTaxonomy())
	assert.ErrorIs(t, err, ErrUnparsableResponse)
}

func TestDecideUsesModel(t *testing.T) {
	llm := &fakeLLM{response: `{"labelId": "FYI", "confidence": "LOW", "reasoning": "newsletter"}`}
	engine := newEngine(llm, 100)

	got := engine.Decide(context.Background(), &Email{ID: "m1", Subject: "Your flight"}, RelationshipAnalysis{})

	assert.Equal(t, "FYI", got.LabelID)
	assert.Equal(t, SourceModel, got.Source)
	require.Len(t, llm.prompts, 1)
}

func TestDecideFallsBackOnModelError(t *testing.T) {
	errors0 := testutil.ToFloat64(metrics.ModelCallsTotal.WithLabelValues("error"))
	engine := newEngine(&fakeLLM{err: errors.New("503 unavailable")}, 100)

	got := engine.Decide(context.Background(), &Email{ID: "m1", Subject: "Your flight"}, RelationshipAnalysis{})

	assert.Equal(t, "TICKETS", got.LabelID)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, errors0+1, testutil.ToFloat64(metrics.ModelCallsTotal.WithLabelValues("error")))
}

func TestDecideFallsBackOnUnusableOutput(t *testing.T) {
	engine := newEngine(&fakeLLM{response: "I am not sure."}, 100)

	got := engine.Decide(context.Background(), &Email{ID: "m1", Subject: "Invoice 42"}, RelationshipAnalysis{})

	assert.Equal(t, "RECEIPTS", got.LabelID)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestDecideWithoutModel(t *testing.T) {
	got := newEngine(nil, 100).Decide(context.Background(), &Email{Subject: "Hi"}, RelationshipAnalysis{History: HistoryAnalysis{HasHistory: true}})
	assert.Equal(t, "FYI", got.LabelID)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestBuildPrompt(t *testing.T) {
	engine := newEngine(nil, 10)
	email := &Email{
		From:    Address{Name: "Shop", Email: "deals@shop.example"},
		To:      []Address{{Email: "me@example.com"}},
		Subject: "Weekend deals",
		Labels:  []string{"INBOX"},
		Body:    "0123456789abcdef",
		Headers: map[string]string{HeaderListUnsubscribe: "<https://shop.example/u>"},
	}
	analysis := RelationshipAnalysis{
		History: HistoryAnalysis{Summary: "No prior email history with this sender"},
		Thread:  ThreadContext{HasUnsubscribe: true, Context: "Contains an unsubscribe link (mailing list)"},
		Domain:  DomainAnalysis{Domain: "shop.example"},
		Hints:   []Hint{HintColdEmail, HintLikelyMarketing},
	}

	prompt := engine.Prompt(email, analysis)

	assert.Contains(t, prompt, "assistant for me@example.com")
	assert.Contains(t, prompt, "- Email history: No prior email history with this sender")
	assert.Contains(t, prompt, "- Sender domain: shop.example (no-reply sender: no)")
	assert.Contains(t, prompt, "- Classification hints: COLD_EMAIL, LIKELY_MARKETING")
	assert.Contains(t, prompt, "- MARKETING (Marketing): ")
	assert.Contains(t, prompt, "From: Shop <deals@shop.example>")
	assert.Contains(t, prompt, "Cc: None")
	assert.Contains(t, prompt, "Existing labels: INBOX")
	assert.Contains(t, prompt, "  List-Unsubscribe: <https://shop.example/u>")
	assert.Contains(t, prompt, "  Precedence: None")
	assert.Contains(t, prompt, "Body:\n0123456789...\n")
	assert.NotContains(t, prompt, "abcdef")
	assert.True(t, strings.HasSuffix(prompt, "\"reasoning\": \"<brief explanation>\"}\n"))

	for _, def := range engine.Taxonomy().Labels() {
		assert.Contains(t, prompt, "- "+def.ID+" ("+def.Name+"): "+def.Description)
	}
}
