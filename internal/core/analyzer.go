package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxHistorySamples bounds the prior messages kept per direction
const maxHistorySamples = 5

// Local-part pattern families. Each is anchored at the start and matched
// independently, so an address may belong to several.
var (
	noReplyPattern   = regexp.MustCompile(`(?i)^(no[-_.]?reply|do[-_.]?not[-_.]?reply|noreply|donotreply)`)
	automatedPattern = regexp.MustCompile(`(?i)^(notifications?|notify|alerts?|automated|auto|system|mailer[-_.]?daemon|postmaster|bounces?|daemon|robot|bot|support|updates?)`)
	marketingPattern = regexp.MustCompile(`(?i)^(marketing|newsletters?|news|promo(tions?)?|offers?|deals?|sales|campaigns?|info|hello|digest)`)
)

const (
	threadPhraseReply       = "Reply in an existing conversation"
	threadPhraseAutomated   = "Automatically generated message"
	threadPhraseUnsubscribe = "Contains an unsubscribe link (mailing list)"
	threadPhraseBulk        = "Sent as bulk mail"
	threadPhraseDirect      = "Direct individual email"
)

var errNoHistoryLookup = errors.New("history lookup not configured")

// RelationshipAnalyzer derives relationship signals for an email
type RelationshipAnalyzer struct {
	lookup HistoryLookup
	logger *zap.Logger
}

// NewRelationshipAnalyzer creates a new analyzer backed by a history lookup
func NewRelationshipAnalyzer(lookup HistoryLookup, logger *zap.Logger) *RelationshipAnalyzer {
	return &RelationshipAnalyzer{
		lookup: lookup,
		logger: logger,
	}
}

// Analyze computes history, thread and domain signals plus classification hints.
// It never fails: lookup errors degrade to an analysis without history.
func (a *RelationshipAnalyzer) Analyze(ctx context.Context, email *Email) RelationshipAnalysis {
	history := a.analyzeHistory(ctx, email)
	thread := AnalyzeThread(email)
	domain := AnalyzeDomain(email.From.Email)

	return RelationshipAnalysis{
		History: history,
		Thread:  thread,
		Domain:  domain,
		Hints:   GenerateHints(history, thread, domain),
	}
}

func (a *RelationshipAnalyzer) analyzeHistory(ctx context.Context, email *Email) HistoryAnalysis {
	sender := strings.TrimSpace(email.From.Email)
	if sender == "" {
		return HistoryAnalysis{Summary: historySummary(0, 0)}
	}
	if a.lookup == nil {
		return degradedHistory(errNoHistoryLookup)
	}

	var received, sent []Email
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		received, err = a.lookup.EmailsFrom(gctx, sender)
		if err != nil {
			return fmt.Errorf("emails from %s: %w", sender, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sent, err = a.lookup.EmailsTo(gctx, sender)
		if err != nil {
			return fmt.Errorf("emails to %s: %w", sender, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("History lookup failed, treating sender as unknown",
			zap.String("message_id", email.ID),
			zap.String("sender", sender),
			zap.Error(err))
		return degradedHistory(err)
	}

	received = excludeMessage(received, email.ID)
	sent = excludeMessage(sent, email.ID)

	return HistoryAnalysis{
		HasHistory:    len(received) > 0 || len(sent) > 0,
		ReceivedCount: len(received),
		SentCount:     len(sent),
		Received:      samples(received),
		Sent:          samples(sent),
		Summary:       historySummary(len(received), len(sent)),
	}
}

func degradedHistory(err error) HistoryAnalysis {
	return HistoryAnalysis{
		Summary: fmt.Sprintf("No prior email history could be determined (history lookup error: %v)", err),
	}
}

// excludeMessage drops the message under analysis from its own history
func excludeMessage(emails []Email, id string) []Email {
	if id == "" {
		return emails
	}
	out := emails[:0:0]
	for _, e := range emails {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func samples(emails []Email) []EmailSample {
	n := len(emails)
	if n > maxHistorySamples {
		n = maxHistorySamples
	}
	out := make([]EmailSample, 0, n)
	for _, e := range emails[:n] {
		out = append(out, EmailSample{
			ID:      e.ID,
			Subject: e.Subject,
			From:    e.From.String(),
			Date:    e.Date,
		})
	}
	return out
}

func historySummary(received, sent int) string {
	if received == 0 && sent == 0 {
		return "No prior email history with this sender"
	}
	var parts []string
	if received > 0 {
		parts = append(parts, fmt.Sprintf("%d email(s) received from this sender", received))
	}
	if sent > 0 {
		parts = append(parts, fmt.Sprintf("%d email(s) sent to this sender", sent))
	}
	return strings.Join(parts, ", ")
}

// AnalyzeThread extracts conversation signals from headers.
// Precedence must be exactly "bulk"; every other signal is header presence.
// A header with an empty value counts as absent.
func AnalyzeThread(email *Email) ThreadContext {
	precedence, _ := email.Header(HeaderPrecedence)
	tc := ThreadContext{
		IsReply:         email.HasHeader(HeaderInReplyTo) || email.HasHeader(HeaderReferences),
		IsAutoSubmitted: email.HasHeader(HeaderAutoSubmitted),
		HasUnsubscribe:  email.HasHeader(HeaderListUnsubscribe),
		IsBulk:          precedence == "bulk",
	}

	var phrases []string
	if tc.IsReply {
		phrases = append(phrases, threadPhraseReply)
	}
	if tc.IsAutoSubmitted {
		phrases = append(phrases, threadPhraseAutomated)
	}
	if tc.HasUnsubscribe {
		phrases = append(phrases, threadPhraseUnsubscribe)
	}
	if tc.IsBulk {
		phrases = append(phrases, threadPhraseBulk)
	}
	if len(phrases) == 0 {
		tc.Context = threadPhraseDirect
	} else {
		tc.Context = strings.Join(phrases, "; ")
	}
	return tc
}

// AnalyzeDomain splits a sender address and matches its local part
func AnalyzeDomain(address string) DomainAnalysis {
	local, domain := SplitAddress(address)
	return DomainAnalysis{
		Domain:      domain,
		LocalPart:   local,
		IsNoReply:   local != "" && noReplyPattern.MatchString(local),
		IsAutomated: local != "" && automatedPattern.MatchString(local),
		IsMarketing: local != "" && marketingPattern.MatchString(local),
	}
}

// SplitAddress returns the local part and lower-cased domain of an address.
// A malformed address yields empty parts instead of an error.
func SplitAddress(address string) (string, string) {
	address = strings.TrimSpace(address)
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return address, ""
	}
	return address[:at], strings.ToLower(address[at+1:])
}

// GenerateHints combines the three analyses into an ordered hint list
func GenerateHints(history HistoryAnalysis, thread ThreadContext, domain DomainAnalysis) []Hint {
	hints := make([]Hint, 0, 4)
	if !history.HasHistory {
		hints = append(hints, HintColdEmail)
		if domain.IsMarketing {
			hints = append(hints, HintLikelyMarketing)
		}
	} else {
		hints = append(hints, HintKnownContact)
		if thread.IsReply {
			hints = append(hints, HintOngoingConversation)
		}
	}
	if thread.IsAutoSubmitted {
		hints = append(hints, HintAutomated)
	}
	if thread.HasUnsubscribe && thread.IsBulk {
		hints = append(hints, HintBulkEmail)
	}
	if domain.IsNoReply {
		hints = append(hints, HintNotificationType)
	}
	return hints
}
