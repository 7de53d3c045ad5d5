package utils

import (
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// TruncationMarker is appended to text cut by TruncateText
const TruncationMarker = "..."

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText cuts text to at most maxChars characters and appends an
// ellipsis marker when anything was removed
func (tp *TextProcessor) TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	count := 0
	cut := len(text)
	for i := range text {
		if count == maxChars {
			cut = i
			break
		}
		count++
	}
	truncated := text[:cut]

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_chars", maxChars))

	return truncated + TruncationMarker
}

// SanitizeUTF8 drops invalid UTF-8 bytes and normalizes to NFC
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return norm.NFC.String(text)
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return norm.NFC.String(string(result))
}

// ProcessText sanitizes and then truncates text in one operation
func (tp *TextProcessor) ProcessText(text string, maxChars int) string {
	return tp.TruncateText(tp.SanitizeUTF8(text), maxChars)
}
