package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 10))
	assert.Equal(t, "exactly10!", tp.TruncateText("exactly10!", 10))
	assert.Equal(t, "abc...", tp.TruncateText("abcdef", 3))
	assert.Equal(t, "unbounded", tp.TruncateText("unbounded", 0))
	assert.Equal(t, "héll...", tp.TruncateText("héllo wörld", 4))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "abc", tp.SanitizeUTF8("a\xffb\xfec"))
	assert.Equal(t, "\u00e9", tp.SanitizeUTF8("e\u0301"))
	assert.Equal(t, "keep \ufffd literal", tp.SanitizeUTF8("keep \ufffd literal"))
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	assert.Equal(t, "ab...", tp.ProcessText("a\xffbcd", 2))
}
