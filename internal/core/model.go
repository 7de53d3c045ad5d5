package core

import (
	"strings"
	"time"
)

// Classification-relevant header names
const (
	HeaderAutoSubmitted   = "Auto-Submitted"
	HeaderSender          = "Sender"
	HeaderInReplyTo       = "In-Reply-To"
	HeaderReferences      = "References"
	HeaderListUnsubscribe = "List-Unsubscribe"
	HeaderPrecedence      = "Precedence"
)

// ClassificationHeaders lists the headers carried on an Email, in prompt order
var ClassificationHeaders = []string{
	HeaderAutoSubmitted,
	HeaderSender,
	HeaderInReplyTo,
	HeaderReferences,
	HeaderListUnsubscribe,
	HeaderPrecedence,
}

// Provider-assigned category labels consulted by the fallback rules
const (
	CategoryPromotions = "CATEGORY_PROMOTIONS"
	CategoryUpdates    = "CATEGORY_UPDATES"
)

// Address is a display name plus mailbox address
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// String renders the address the way it appears in a header
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Email represents a fetched mailbox message
type Email struct {
	ID       string
	ThreadID string
	Subject  string
	From     Address
	To       []Address
	Cc       []Address
	Body     string
	Labels   []string
	Headers  map[string]string
	Date     time.Time
}

// Header looks up a header value case-insensitively
func (e Email) Header(name string) (string, bool) {
	if v, ok := e.Headers[name]; ok {
		return v, true
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// HasHeader reports whether a header is present with a non-empty value
func (e Email) HasHeader(name string) bool {
	v, ok := e.Header(name)
	return ok && v != ""
}

// HasLabel reports whether the email already carries a provider label
func (e Email) HasLabel(label string) bool {
	for _, l := range e.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// EmailSample is a short reference to a prior message
type EmailSample struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	Date    time.Time `json:"date"`
}

// HistoryAnalysis summarises prior correspondence with a sender
type HistoryAnalysis struct {
	HasHistory    bool          `json:"has_history"`
	ReceivedCount int           `json:"received_count"`
	SentCount     int           `json:"sent_count"`
	Received      []EmailSample `json:"received,omitempty"`
	Sent          []EmailSample `json:"sent,omitempty"`
	Summary       string        `json:"summary"`
}

// ThreadContext holds header-derived conversation signals
type ThreadContext struct {
	IsReply         bool   `json:"is_reply"`
	IsAutoSubmitted bool   `json:"is_auto_submitted"`
	HasUnsubscribe  bool   `json:"has_unsubscribe"`
	IsBulk          bool   `json:"is_bulk"`
	Context         string `json:"context"`
}

// DomainAnalysis holds sender address heuristics
type DomainAnalysis struct {
	Domain      string `json:"domain"`
	LocalPart   string `json:"local_part"`
	IsNoReply   bool   `json:"is_no_reply"`
	IsAutomated bool   `json:"is_automated"`
	IsMarketing bool   `json:"is_marketing"`
}

// Hint is a semantic tag derived from relationship analysis
type Hint string

const (
	HintColdEmail           Hint = "COLD_EMAIL"
	HintLikelyMarketing     Hint = "LIKELY_MARKETING"
	HintKnownContact        Hint = "KNOWN_CONTACT"
	HintOngoingConversation Hint = "ONGOING_CONVERSATION"
	HintAutomated           Hint = "AUTOMATED"
	HintBulkEmail           Hint = "BULK_EMAIL"
	HintNotificationType    Hint = "NOTIFICATION_TYPE"
)

// RelationshipAnalysis is recomputed for every classification and never stored
type RelationshipAnalysis struct {
	History HistoryAnalysis `json:"history"`
	Thread  ThreadContext   `json:"thread"`
	Domain  DomainAnalysis  `json:"domain"`
	Hints   []Hint          `json:"hints"`
}

// HasHint reports whether the analysis produced the given hint
func (a RelationshipAnalysis) HasHint(h Hint) bool {
	for _, x := range a.Hints {
		if x == h {
			return true
		}
	}
	return false
}

// Confidence is the classifier's certainty in a label
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// DecisionSource records which path produced a classification
type DecisionSource string

const (
	SourceModel          DecisionSource = "model"
	SourceModelSubstring DecisionSource = "model_substring"
	SourceFallback       DecisionSource = "fallback"
)

// Classification is the label decision for one email
type Classification struct {
	LabelID    string         `json:"label_id"`
	LabelName  string         `json:"label_name"`
	Confidence Confidence     `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Source     DecisionSource `json:"source"`
}

// ResultStatus describes how the orchestrator finished with a message
type ResultStatus string

const (
	StatusLabeled ResultStatus = "labeled"
	StatusSkipped ResultStatus = "skipped"
	StatusFailed  ResultStatus = "failed"
)

// ClassificationResult is the orchestrator's per-message outcome
type ClassificationResult struct {
	MessageID      string          `json:"message_id"`
	RunID          string          `json:"run_id,omitempty"`
	Status         ResultStatus    `json:"status"`
	Success        bool            `json:"success"`
	Classification *Classification `json:"classification,omitempty"`
	LabelApplied   bool            `json:"label_applied"`
	Error          string          `json:"error,omitempty"`
	ProcessedAt    time.Time       `json:"processed_at"`
}

// ResultEntry is a ledger record of a processed message
type ResultEntry struct {
	MessageID   string
	LabelID     string
	LabelName   string
	Confidence  Confidence
	Source      DecisionSource
	ProcessedAt time.Time
	ExpiresAt   time.Time
}
