package runner

import (
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/llm-mail-labeler/internal/core"
)

// ParseEML reads an RFC 5322 message into an Email. The first text/plain part
// becomes the body, falling back to text/html.
func ParseEML(r io.Reader, fallbackID string) (*core.Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	email := &core.Email{
		ID:      fallbackID,
		Headers: headerFields(&mr.Header),
	}

	if id, err := mr.Header.MessageID(); err == nil && id != "" {
		email.ID = id
	}
	if subject, err := mr.Header.Subject(); err == nil {
		email.Subject = subject
	}
	if date, err := mr.Header.Date(); err == nil {
		email.Date = date
	}
	if from := addressList(&mr.Header, "From"); len(from) > 0 {
		email.From = from[0]
	}
	email.To = addressList(&mr.Header, "To")
	email.Cc = addressList(&mr.Header, "Cc")

	var plain, html string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType != "text/plain" && contentType != "text/html" && contentType != "" {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read message body: %w", err)
		}
		switch {
		case contentType == "text/html" && html == "":
			html = string(body)
		case contentType != "text/html" && plain == "":
			plain = string(body)
		}
	}

	email.Body = plain
	if email.Body == "" {
		email.Body = html
	}
	return email, nil
}

// headerFields keeps the first decoded value of each header
func headerFields(h *mail.Header) map[string]string {
	headers := make(map[string]string)
	fields := h.Fields()
	for fields.Next() {
		key := fields.Key()
		if _, seen := headers[key]; seen {
			continue
		}
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func addressList(h *mail.Header, key string) []core.Address {
	list, err := h.AddressList(key)
	if err != nil || len(list) == 0 {
		if raw := strings.TrimSpace(h.Get(key)); raw != "" {
			return []core.Address{{Email: strings.Trim(raw, "<> ")}}
		}
		return nil
	}

	out := make([]core.Address, 0, len(list))
	for _, a := range list {
		out = append(out, core.Address{Name: a.Name, Email: a.Address})
	}
	return out
}
