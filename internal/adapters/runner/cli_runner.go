package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// CliRunner prints classification results for one-shot commands
type CliRunner struct {
	service    *core.ClassificationService
	engine     *core.LabelDecisionEngine
	out        io.Writer
	logger     *zap.Logger
	verbose    bool
	jsonOutput bool
}

// NewCliRunner creates a new CLI runner writing to out
func NewCliRunner(
	service *core.ClassificationService,
	engine *core.LabelDecisionEngine,
	out io.Writer,
	logger *zap.Logger,
	verbose bool,
	jsonOutput bool,
) *CliRunner {
	return &CliRunner{
		service:    service,
		engine:     engine,
		out:        out,
		logger:     logger,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

// ClassifyMessages classifies and labels mailbox messages by id. It returns
// an error when any message failed so the command exits non-zero.
func (r *CliRunner) ClassifyMessages(ctx context.Context, messageIDs []string) error {
	results := r.service.ClassifyBatch(ctx, messageIDs)

	if r.jsonOutput {
		if err := r.writeJSON(results); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			r.printResult(result)
		}
	}

	failed := 0
	for _, result := range results {
		if !result.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, len(messageIDs))
	}
	if len(results) < len(messageIDs) {
		return fmt.Errorf("batch interrupted after %d of %d messages", len(results), len(messageIDs))
	}
	return nil
}

// AnalyzeEmail classifies a parsed message without touching any mailbox
func (r *CliRunner) AnalyzeEmail(ctx context.Context, email *core.Email) error {
	r.logger.Debug("Analyzing email", zap.String("sender", email.From.Email))

	start := time.Now()
	analysis, classification := r.service.Classify(ctx, email)
	duration := time.Since(start)

	if r.jsonOutput {
		return r.writeJSON(struct {
			MessageID      string                    `json:"message_id"`
			Analysis       core.RelationshipAnalysis `json:"analysis"`
			Classification core.Classification       `json:"classification"`
		}{email.ID, analysis, classification})
	}

	fmt.Fprintf(r.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(r.out, "From: %s\n", email.From)
	fmt.Fprintf(r.out, "To: %s\n", joinAddresses(email.To))
	fmt.Fprintf(r.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(r.out, "Body length: %d bytes\n", len(email.Body))

	fmt.Fprintf(r.out, "\n=== Relationship ===\n")
	fmt.Fprintf(r.out, "History: %s\n", analysis.History.Summary)
	fmt.Fprintf(r.out, "Thread: %s\n", analysis.Thread.Context)
	fmt.Fprintf(r.out, "Domain: %s\n", analysis.Domain.Domain)
	fmt.Fprintf(r.out, "Hints: %s\n", joinHints(analysis.Hints))

	if r.verbose {
		fmt.Fprintf(r.out, "\n=== Prompt ===\n%s\n", r.engine.Prompt(email, analysis))
	}

	fmt.Fprintf(r.out, "\n=== Classification ===\n")
	r.printClassification(classification)
	fmt.Fprintf(r.out, "Processing time: %v\n", duration)
	return nil
}

// PrintLabels lists the taxonomy with provider ids
func (r *CliRunner) PrintLabels() error {
	labels := r.engine.Taxonomy().Labels()
	if r.jsonOutput {
		return r.writeJSON(labels)
	}
	for _, l := range labels {
		fmt.Fprintf(r.out, "%-16s %-24s %s\n", l.Key, l.ID, l.Name)
	}
	return nil
}

func (r *CliRunner) printResult(result core.ClassificationResult) {
	fmt.Fprintf(r.out, "\n=== %s ===\n", result.MessageID)
	fmt.Fprintf(r.out, "Status: %s\n", result.Status)
	if result.Classification != nil {
		r.printClassification(*result.Classification)
		fmt.Fprintf(r.out, "Label applied: %t\n", result.LabelApplied)
	}
	if result.Error != "" {
		fmt.Fprintf(r.out, "Error: %s\n", result.Error)
	}
}

func (r *CliRunner) printClassification(c core.Classification) {
	fmt.Fprintf(r.out, "Label: %s (%s)\n", c.LabelName, c.LabelID)
	fmt.Fprintf(r.out, "Confidence: %s\n", c.Confidence)
	fmt.Fprintf(r.out, "Source: %s\n", c.Source)
	fmt.Fprintf(r.out, "Reasoning: %s\n", c.Reasoning)
}

func (r *CliRunner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinAddresses(addrs []core.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func joinHints(hints []core.Hint) string {
	if len(hints) == 0 {
		return "none"
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = string(h)
	}
	return strings.Join(parts, ", ")
}
