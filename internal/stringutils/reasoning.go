package stringutils

import (
	"regexp"
	"strings"
)

var (
	thinkBlockPattern = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkOpenPattern  = regexp.MustCompile(`(?is)<think>.*$`)
	thinkClosePattern = regexp.MustCompile(`(?i)</think>`)
)

// StripReasoning drops <think> blocks some models prepend to their answers.
// An unterminated <think> swallows the rest of the text.
func StripReasoning(s string) string {
	s = thinkBlockPattern.ReplaceAllString(s, "")
	s = thinkOpenPattern.ReplaceAllString(s, "")
	s = thinkClosePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
