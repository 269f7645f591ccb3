package stringutils_test

import (
	"testing"

	"github.com/habiliai/aurora/internal/stringutils"
	"github.com/stretchr/testify/assert"
)

func TestStripReasoning(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "closed block",
			input:    "<think>user wants a joke</think>\nWhy did the gopher cross the road?",
			expected: "Why did the gopher cross the road?",
		},
		{
			name:     "multiple blocks",
			input:    "<think>a</think>Hello <THINK>b</THINK>there",
			expected: "Hello there",
		},
		{
			name:     "unterminated block",
			input:    "Sure.<think>still reasoning",
			expected: "Sure.",
		},
		{
			name:     "stray closing tag",
			input:    "done</think> here",
			expected: "done here",
		},
		{
			name:     "nothing to strip",
			input:    "  plain answer ",
			expected: "plain answer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stringutils.StripReasoning(tc.input))
		})
	}
}
