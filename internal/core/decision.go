package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/metrics"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"go.uber.org/zap"
)

var (
	// ErrModelCall wraps any failure returned by the language model client
	ErrModelCall = errors.New("model call failed")
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty model response")
	// ErrUnparsableResponse is returned when no label could be read from the model output
	ErrUnparsableResponse = errors.New("unparsable model response")
)

const (
	defaultReasoning   = "No reasoning provided"
	substringReasoning = "Label ID matched by substring in model response"
)

// modelResponse is the JSON object the model is asked to produce
type modelResponse struct {
	LabelID    string `json:"labelId"`
	LabelName  string `json:"labelName"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// LabelDecisionEngine turns an email and its relationship analysis into a label
type LabelDecisionEngine struct {
	llmClient     LLMClient
	taxonomy      *Taxonomy
	userEmail     string
	maxBodyChars  int
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewLabelDecisionEngine creates a new decision engine. A nil llmClient sends
// every email straight to the rule cascade.
func NewLabelDecisionEngine(
	llmClient LLMClient,
	taxonomy *Taxonomy,
	userEmail string,
	maxBodyChars int,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *LabelDecisionEngine {
	return &LabelDecisionEngine{
		llmClient:     llmClient,
		taxonomy:      taxonomy,
		userEmail:     userEmail,
		maxBodyChars:  maxBodyChars,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Taxonomy returns the label set the engine decides over
func (e *LabelDecisionEngine) Taxonomy() *Taxonomy {
	return e.taxonomy
}

// Prompt renders the model prompt for an email
func (e *LabelDecisionEngine) Prompt(email *Email, analysis RelationshipAnalysis) string {
	return BuildPrompt(PromptInput{
		UserEmail: e.userEmail,
		Email:     email,
		Analysis:  analysis,
		Body:      e.textProcessor.ProcessText(email.Body, e.maxBodyChars),
		Taxonomy:  e.taxonomy,
	})
}

// Decide always returns exactly one classification. Model failures and
// unusable output fall through to the rule cascade.
func (e *LabelDecisionEngine) Decide(ctx context.Context, email *Email, analysis RelationshipAnalysis) Classification {
	if e.llmClient == nil {
		return FallbackClassify(email, analysis, e.taxonomy)
	}

	classification, err := e.classifyWithModel(ctx, email, analysis)
	if err != nil {
		e.logger.Warn("Model classification unavailable, using fallback rules",
			zap.String("message_id", email.ID),
			zap.Error(err))
		return FallbackClassify(email, analysis, e.taxonomy)
	}
	return classification
}

func (e *LabelDecisionEngine) classifyWithModel(ctx context.Context, email *Email, analysis RelationshipAnalysis) (Classification, error) {
	prompt := e.Prompt(email, analysis)

	start := time.Now()
	response, err := e.llmClient.Complete(ctx, prompt)
	metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelCallsTotal.WithLabelValues("error").Inc()
		return Classification{}, fmt.Errorf("%w: %w", ErrModelCall, err)
	}
	metrics.ModelCallsTotal.WithLabelValues("ok").Inc()

	e.logger.Debug("Model response received",
		zap.String("message_id", email.ID),
		zap.Int("response_size", len(response)))

	return ParseModelResponse(response, e.taxonomy)
}

// ParseModelResponse reads a classification from raw model output. It first
// looks for a JSON object, then for any known label id in the text.
func ParseModelResponse(response string, taxonomy *Taxonomy) (Classification, error) {
	if strings.TrimSpace(response) == "" {
		return Classification{}, ErrEmptyResponse
	}

	if parsed, ok := extractJSON(response); ok {
		return Classification{
			LabelID:    parsed.LabelID,
			LabelName:  defaultString(parsed.LabelName, taxonomy.NameFor(parsed.LabelID)),
			Confidence: normalizeConfidence(parsed.Confidence),
			Reasoning:  defaultString(parsed.Reasoning, defaultReasoning),
			Source:     SourceModel,
		}, nil
	}

	for _, def := range taxonomy.Labels() {
		if strings.Contains(response, def.ID) {
			return Classification{
				LabelID:    def.ID,
				LabelName:  def.Name,
				Confidence: ConfidenceMedium,
				Reasoning:  substringReasoning,
				Source:     SourceModelSubstring,
			}, nil
		}
	}

	return Classification{}, ErrUnparsableResponse
}

// extractJSON decodes the first object starting at the first '{' and
// ignores anything after it. A parsed object without labelId is not usable.
func extractJSON(text string) (modelResponse, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return modelResponse{}, false
	}

	var resp modelResponse
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&resp); err != nil {
		return modelResponse{}, false
	}
	resp.LabelID = strings.TrimSpace(resp.LabelID)
	if resp.LabelID == "" {
		return modelResponse{}, false
	}
	return resp, true
}

func normalizeConfidence(s string) Confidence {
	switch c := Confidence(strings.ToUpper(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceMedium
	}
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
