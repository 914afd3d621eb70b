package interview

import (
	"strings"
	"unicode/utf8"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

const (
	DefaultMinChatLength = 5
	DefaultCodeThreshold = 5
)

const codeSymbols = "{}()[];:=<>+-*&|!^~@"

// Flag reasons reported by the heuristics
const (
	FlagRepeated   = "repeated"
	FlagCode       = "code"
	FlagIrrelevant = "irrelevant"
)

// IsRepeated reports whether text repeats one of the last two chat messages.
// Short chats are never checked.
func IsRepeated(s *domain.Session, text string, minChatLength int) bool {
	if len(s.Chat) == 0 || len(s.Chat) < minChatLength {
		return false
	}
	for _, m := range s.Chat[max(len(s.Chat)-2, 0):] {
		if m.Content == text {
			return true
		}
	}
	return false
}

// LooksLikeCode is a length-normalized density test on programming symbols
func LooksLikeCode(text string, threshold int) bool {
	count := 0
	for _, r := range text {
		if strings.ContainsRune(codeSymbols, r) {
			count++
		}
	}
	length := float64(utf8.RuneCountInString(text))
	return float64(count) > float64(threshold)*(1+length/100)
}

// SafetyPolicy holds the thresholds of the local heuristics
type SafetyPolicy struct {
	MinChatLength int
	CodeThreshold int
}

// DefaultSafetyPolicy returns the standard thresholds
func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		MinChatLength: DefaultMinChatLength,
		CodeThreshold: DefaultCodeThreshold,
	}
}

// Screen runs the local heuristics and returns the flag reason, or "" when
// the message passes.
func (p SafetyPolicy) Screen(s *domain.Session, text string) string {
	if IsRepeated(s, text, p.MinChatLength) {
		return FlagRepeated
	}
	if LooksLikeCode(text, p.CodeThreshold) {
		return FlagCode
	}
	return ""
}
