package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/mikey/llm-mail-labeler/internal/core"
	gm "google.golang.org/api/gmail/v1"
)

// toEmail converts an API message in full or metadata format
func toEmail(msg *gm.Message) *core.Email {
	email := &core.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Labels:   msg.LabelIds,
		Headers:  map[string]string{},
	}
	if msg.InternalDate > 0 {
		email.Date = time.UnixMilli(msg.InternalDate)
	}
	if msg.Payload == nil {
		return email
	}

	email.Headers = headerMap(msg.Payload.Headers)
	if from, ok := email.Header("From"); ok {
		if addrs := parseAddressList(from); len(addrs) > 0 {
			email.From = addrs[0]
		}
	}
	if to, ok := email.Header("To"); ok {
		email.To = parseAddressList(to)
	}
	if cc, ok := email.Header("Cc"); ok {
		email.Cc = parseAddressList(cc)
	}
	email.Subject, _ = email.Header("Subject")
	email.Body = extractBody(msg.Payload)
	return email
}

// headerMap keeps the first value of each header
func headerMap(headers []*gm.MessagePartHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		if _, seen := m[h.Name]; !seen {
			m[h.Name] = h.Value
		}
	}
	return m
}

// parseAddressList parses an RFC 5322 address list. Unparsable input is kept
// as a single bare address so the sender is never lost.
func parseAddressList(raw string) []core.Address {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parsed, err := mail.ParseAddressList(raw)
	if err != nil || len(parsed) == 0 {
		return []core.Address{{Email: strings.Trim(raw, "<> ")}}
	}

	out := make([]core.Address, 0, len(parsed))
	for _, a := range parsed {
		out = append(out, core.Address{Name: a.Name, Email: a.Address})
	}
	return out
}

// extractBody returns the first text/plain part, falling back to text/html
func extractBody(payload *gm.MessagePart) string {
	if body := findPart(payload, "text/plain"); body != "" {
		return body
	}
	return findPart(payload, "text/html")
}

func findPart(part *gm.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeBase64URL(part.Body.Data); err == nil {
			return decoded
		}
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodeBase64URL decodes Gmail's URL-safe base64 with or without padding
func decodeBase64URL(data string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
