package skiplist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsSkipped(t *testing.T) {
	c := NewChecker([]string{" Example.COM ", "@corp.example", ""}, zap.NewNop())

	assert.Equal(t, []string{"example.com", "corp.example"}, c.Domains())

	tests := []struct {
		address string
		want    bool
	}{
		{"alice@example.com", true},
		{"alice@EXAMPLE.com", true},
		{"build@ci.corp.example", true},
		{"alice@notexample.com", false},
		{"alice@example.com.evil", false},
		{"no-at-sign", false},
		{"trailing@", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsSkipped(tt.address), tt.address)
	}
}

func TestEmptyChecker(t *testing.T) {
	var nilChecker *Checker
	assert.False(t, nilChecker.IsSkipped("a@example.com"))
	assert.False(t, NewChecker(nil, nil).IsSkipped("a@example.com"))
}
