package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLookup struct {
	from    []Email
	to      []Email
	fromErr error
	toErr   error
}

func (f *fakeLookup) EmailsFrom(ctx context.Context, address string) ([]Email, error) {
	return f.from, f.fromErr
}

func (f *fakeLookup) EmailsTo(ctx context.Context, address string) ([]Email, error) {
	return f.to, f.toErr
}

func emailsWithIDs(ids ...string) []Email {
	out := make([]Email, len(ids))
	for i, id := range ids {
		out[i] = Email{ID: id, Subject: "subject " + id, From: Address{Email: "a@example.com"}}
	}
	return out
}

func TestAnalyzeColdMarketingSender(t *testing.T) {
	a := NewRelationshipAnalyzer(&fakeLookup{}, zap.NewNop())
	email := &Email{ID: "m1", From: Address{Email: "newsletter@shop.example"}}

	got := a.Analyze(context.Background(), email)

	assert.False(t, got.History.HasHistory)
	assert.Equal(t, "No prior email history with this sender", got.History.Summary)
	assert.Equal(t, "shop.example", got.Domain.Domain)
	assert.True(t, got.Domain.IsMarketing)
	assert.Equal(t, []Hint{HintColdEmail, HintLikelyMarketing}, got.Hints)
}

func TestAnalyzeKnownContactExcludesCurrentMessage(t *testing.T) {
	lookup := &fakeLookup{
		from: emailsWithIDs("old1", "current"),
		to:   emailsWithIDs("sent1"),
	}
	a := NewRelationshipAnalyzer(lookup, zap.NewNop())
	email := &Email{
		ID:      "current",
		From:    Address{Name: "Jane", Email: "jane@example.com"},
		Headers: map[string]string{HeaderInReplyTo: "<x@example.com>"},
	}

	got := a.Analyze(context.Background(), email)

	assert.True(t, got.History.HasHistory)
	assert.Equal(t, 1, got.History.ReceivedCount)
	assert.Equal(t, 1, got.History.SentCount)
	require.Len(t, got.History.Received, 1)
	assert.Equal(t, "old1", got.History.Received[0].ID)
	assert.Equal(t, "1 email(s) received from this sender, 1 email(s) sent to this sender", got.History.Summary)
	assert.Equal(t, []Hint{HintKnownContact, HintOngoingConversation}, got.Hints)
}

func TestAnalyzeCapsSamples(t *testing.T) {
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%d", i)
	}
	a := NewRelationshipAnalyzer(&fakeLookup{from: emailsWithIDs(ids...)}, zap.NewNop())

	got := a.Analyze(context.Background(), &Email{ID: "new", From: Address{Email: "x@example.com"}})

	assert.Equal(t, 8, got.History.ReceivedCount)
	assert.Len(t, got.History.Received, maxHistorySamples)
	assert.Empty(t, got.History.Sent)
	assert.Equal(t, "8 email(s) received from this sender", got.History.Summary)
}

func TestAnalyzeLookupFailureDegrades(t *testing.T) {
	a := NewRelationshipAnalyzer(&fakeLookup{toErr: errors.New("quota exceeded")}, zap.NewNop())

	got := a.Analyze(context.Background(), &Email{ID: "m1", From: Address{Email: "bob@example.com"}})

	assert.False(t, got.History.HasHistory)
	assert.Contains(t, got.History.Summary, "history lookup error")
	assert.Contains(t, got.History.Summary, "quota exceeded")
	assert.Equal(t, []Hint{HintColdEmail}, got.Hints)
}

func TestAnalyzeWithoutLookup(t *testing.T) {
	a := NewRelationshipAnalyzer(nil, zap.NewNop())

	got := a.Analyze(context.Background(), &Email{ID: "m1", From: Address{Email: "bob@example.com"}})
	assert.Contains(t, got.History.Summary, "history lookup not configured")

	got = a.Analyze(context.Background(), &Email{ID: "m2"})
	assert.Equal(t, "No prior email history with this sender", got.History.Summary)
	assert.Equal(t, "", got.Domain.Domain)
}

func TestAnalyzeThread(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    ThreadContext
	}{
		{
			name: "direct",
			want: ThreadContext{Context: "Direct individual email"},
		},
		{
			name:    "reply via references",
			headers: map[string]string{"references": "<a@b>"},
			want:    ThreadContext{IsReply: true, Context: "Reply in an existing conversation"},
		},
		{
			name: "bulk list mail",
			headers: map[string]string{
				HeaderListUnsubscribe: "<mailto:u@example.com>",
				HeaderPrecedence:      "bulk",
				HeaderAutoSubmitted:   "auto-generated",
			},
			want: ThreadContext{
				IsAutoSubmitted: true,
				HasUnsubscribe:  true,
				IsBulk:          true,
				Context:         "Automatically generated message; Contains an unsubscribe link (mailing list); Sent as bulk mail",
			},
		},
		{
			name:    "precedence must match exactly",
			headers: map[string]string{HeaderPrecedence: "Bulk"},
			want:    ThreadContext{Context: "Direct individual email"},
		},
		{
			name:    "empty header is absent",
			headers: map[string]string{HeaderInReplyTo: ""},
			want:    ThreadContext{Context: "Direct individual email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeThread(&Email{Headers: tt.headers}))
		})
	}
}

func TestAnalyzeDomain(t *testing.T) {
	d := AnalyzeDomain("No-Reply@Mail.Example.COM")
	assert.Equal(t, "mail.example.com", d.Domain)
	assert.Equal(t, "No-Reply", d.LocalPart)
	assert.True(t, d.IsNoReply)
	assert.False(t, d.IsMarketing)

	d = AnalyzeDomain("alerts@bank.example")
	assert.True(t, d.IsAutomated)
	assert.False(t, d.IsNoReply)

	d = AnalyzeDomain("john.smith@example.com")
	assert.Equal(t, DomainAnalysis{Domain: "example.com", LocalPart: "john.smith"}, d)

	d = AnalyzeDomain("not-an-address")
	assert.Equal(t, "", d.Domain)
	assert.Equal(t, "not-an-address", d.LocalPart)
}

func TestGenerateHints(t *testing.T) {
	hints := GenerateHints(
		HistoryAnalysis{HasHistory: true},
		ThreadContext{IsAutoSubmitted: true, HasUnsubscribe: true, IsBulk: true},
		DomainAnalysis{IsNoReply: true, IsMarketing: true},
	)
	assert.Equal(t, []Hint{HintKnownContact, HintAutomated, HintBulkEmail, HintNotificationType}, hints)

	hints = GenerateHints(HistoryAnalysis{}, ThreadContext{HasUnsubscribe: true, IsReply: true}, DomainAnalysis{})
	assert.Equal(t, []Hint{HintColdEmail}, hints)
}
