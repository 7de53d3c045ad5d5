package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Keyword tables for the rule cascade. Matching is case-insensitive substring containment.
var (
	ticketKeywords = []string{
		"booking confirmation", "flight", "boarding pass", "check-in", "travel itinerary",
		"train", "bus", "ferry", "airline", "departure", "arrival", "ticket",
		"reservation", "booking", "travel", "journey", "trip",
	}

	receiptKeywords = []string{
		"order confirmation", "receipt", "invoice", "payment", "purchase", "shipped",
		"delivered", "order", "transaction", "billing", "your order",
		"payment confirmation", "thank you for your order", "delivery confirmation",
		"shipping notification",
	}

	meetingKeywords = []string{
		"accepted:", "declined:", "invitation", "meeting", "calendar",
		"cancelled:", "updated invitation",
	}

	commentKeywords = []string{
		"new comment", "comment on", "feedback on", "review requested",
	}

	promoKeywords = []string{
		"unsubscribe", "% off", "sale", "discount", "promo", "coupon", "deal",
		"limited time", "special offer", "exclusive offer", "free shipping",
		"shop now", "buy now", "newsletter", "webinar",
	}

	notificationKeywords = []string{
		"notification", "alert", "reminder", "security", "verify", "verification",
		"password", "sign-in", "login", "your account", "status update",
		"has been updated", "automated message",
	}
)

type fallbackRule struct {
	label     LabelKey
	reasoning string
	matches   func(f *fallbackInput) bool
}

type fallbackInput struct {
	subject  string
	text     string
	email    *Email
	analysis RelationshipAnalysis
}

// The cascade is evaluated in this order and the first match wins.
var fallbackRules = []fallbackRule{
	{
		label:     LabelTickets,
		reasoning: "Fallback: ticket or travel keywords found",
		matches:   func(f *fallbackInput) bool { return containsAny(f.text, ticketKeywords) },
	},
	{
		label:     LabelReceipts,
		reasoning: "Fallback: receipt or purchase keywords found",
		matches:   func(f *fallbackInput) bool { return containsAny(f.text, receiptKeywords) },
	},
	{
		label:     LabelMeetingUpdate,
		reasoning: "Fallback: meeting keywords found in subject",
		matches:   func(f *fallbackInput) bool { return containsAny(f.subject, meetingKeywords) },
	},
	{
		label:     LabelComment,
		reasoning: "Fallback: comment keywords found in subject",
		matches:   func(f *fallbackInput) bool { return containsAny(f.subject, commentKeywords) },
	},
	{
		label:     LabelMarketing,
		reasoning: "Fallback: promotional content from a sender with no prior history",
		matches: func(f *fallbackInput) bool {
			if f.analysis.History.HasHistory {
				return false
			}
			return containsAny(f.text, promoKeywords) ||
				f.email.HasLabel(CategoryPromotions) ||
				f.email.HasHeader(HeaderListUnsubscribe)
		},
	},
	{
		label:     LabelNotification,
		reasoning: "Fallback: automated notification signals found",
		matches: func(f *fallbackInput) bool {
			return containsAny(f.text, notificationKeywords) ||
				f.email.HasLabel(CategoryUpdates) ||
				f.analysis.Domain.IsNoReply ||
				f.email.HasHeader(HeaderAutoSubmitted)
		},
	},
	{
		label:     LabelToRespond,
		reasoning: "Fallback: reply in a conversation or multiple questions asked",
		matches: func(f *fallbackInput) bool {
			return f.analysis.Thread.IsReply || strings.Count(f.email.Body, "?") >= 2
		},
	},
}

// FallbackClassify picks a label with the deterministic rule cascade.
// It always returns a taxonomy label with LOW confidence.
func FallbackClassify(email *Email, analysis RelationshipAnalysis, taxonomy *Taxonomy) Classification {
	fold := cases.Fold()
	subject := fold.String(email.Subject)
	in := &fallbackInput{
		subject:  subject,
		text:     subject + " " + fold.String(email.Body),
		email:    email,
		analysis: analysis,
	}

	for _, rule := range fallbackRules {
		if rule.matches(in) {
			return fallbackResult(taxonomy.Get(rule.label), rule.reasoning)
		}
	}
	return fallbackResult(taxonomy.Get(LabelFYI), "Fallback: no specific signals, defaulting to FYI")
}

func fallbackResult(def LabelDef, reasoning string) Classification {
	return Classification{
		LabelID:    def.ID,
		LabelName:  def.Name,
		Confidence: ConfidenceLow,
		Reasoning:  reasoning,
		Source:     SourceFallback,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
