package core

import (
	"fmt"
	"strings"
)

const noneValue = "None"

// PromptInput carries everything rendered into the classification prompt
type PromptInput struct {
	UserEmail string
	Email     *Email
	Analysis  RelationshipAnalysis
	Body      string
	Taxonomy  *Taxonomy
}

// BuildPrompt renders the classification prompt
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	e := in.Email
	t := in.Taxonomy

	fmt.Fprintf(&b, "You are an email classification assistant for %s. ", orNone(in.UserEmail))
	b.WriteString("Classify the email below into exactly one of the available labels.\n\n")

	b.WriteString("RELATIONSHIP ANALYSIS:\n")
	fmt.Fprintf(&b, "- Email history: %s\n", in.Analysis.History.Summary)
	fmt.Fprintf(&b, "- Thread context: %s\n", in.Analysis.Thread.Context)
	fmt.Fprintf(&b, "- Sender domain: %s (no-reply sender: %s)\n",
		orNone(in.Analysis.Domain.Domain), yesNo(in.Analysis.Domain.IsNoReply))
	fmt.Fprintf(&b, "- Classification hints: %s\n\n", joinHints(in.Analysis.Hints))

	b.WriteString("AVAILABLE LABELS:\n")
	for _, def := range t.Labels() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", def.ID, def.Name, def.Description)
	}
	b.WriteString("\n")

	b.WriteString("PRIORITY GUIDANCE:\n")
	fmt.Fprintf(&b, "- If there is NO prior email history with the sender, strongly prefer %s for promotional content and cold outreach.\n",
		t.Get(LabelMarketing).ID)
	fmt.Fprintf(&b, "- If there IS prior email history, prefer %s for automated updates, %s for informational messages and %s when a reply or action is expected.\n",
		t.Get(LabelNotification).ID, t.Get(LabelFYI).ID, t.Get(LabelToRespond).ID)
	fmt.Fprintf(&b, "- Use %s and %s whenever the content is clearly a travel booking or a purchase, regardless of history.\n\n",
		t.Get(LabelTickets).ID, t.Get(LabelReceipts).ID)

	b.WriteString("EMAIL:\n")
	fmt.Fprintf(&b, "From: %s\n", orNone(e.From.String()))
	fmt.Fprintf(&b, "To: %s\n", joinAddresses(e.To))
	fmt.Fprintf(&b, "Cc: %s\n", joinAddresses(e.Cc))
	fmt.Fprintf(&b, "Subject: %s\n", e.Subject)
	fmt.Fprintf(&b, "Existing labels: %s\n", joinOrNone(e.Labels))
	b.WriteString("Headers:\n")
	for _, name := range ClassificationHeaders {
		v, ok := e.Header(name)
		if !ok || v == "" {
			v = noneValue
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, v)
	}
	fmt.Fprintf(&b, "Body:\n%s\n\n", in.Body)

	b.WriteString("Respond ONLY with a JSON object in exactly this format and nothing else:\n")
	b.WriteString(`{"labelId": "<label id>", "labelName": "<label name>", "confidence": "HIGH|MEDIUM|LOW", "reasoning": "<brief explanation>"}`)
	b.WriteString("\n")

	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return noneValue
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func joinHints(hints []Hint) string {
	if len(hints) == 0 {
		return noneValue
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = string(h)
	}
	return strings.Join(parts, ", ")
}

func joinAddresses(addrs []Address) string {
	if len(addrs) == 0 {
		return noneValue
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return noneValue
	}
	return strings.Join(values, ", ")
}
