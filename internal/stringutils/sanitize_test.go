package stringutils_test

import (
	"testing"

	"github.com/habiliai/aurora/internal/stringutils"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeUnicodeString(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "null byte", input: "good\u0000 morning", expected: "good morning"},
		{name: "control characters", input: "hi\u0001\u001f\u007f there", expected: "hi there"},
		{name: "whitespace kept", input: "line one\nline\ttwo\r", expected: "line one\nline\ttwo\r"},
		{name: "C1 controls", input: "ok\u0080\u009f!", expected: "ok!"},
		{name: "invalid utf-8", input: "caf\xc3 au lait", expected: "caf au lait"},
		{name: "non-latin and emoji untouched", input: "Привет, Аврора 🌅", expected: "Привет, Аврора 🌅"},
		{name: "zero width joiner kept", input: "family\u0000 👩\u200d👧", expected: "family 👩\u200d👧"},
		{name: "replacement character kept", input: "broken \ufffd glyph\xff", expected: "broken \ufffd glyph"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stringutils.SanitizeUnicodeString(tc.input))
		})
	}
}
