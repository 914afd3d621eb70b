package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Labels a task can require in its output
const (
	LabelQuestion      = "Question"
	LabelSummary       = "Summary"
	LabelJustification = "Justification"
	LabelChoice        = "Choice"
	LabelNewTopicID    = "New_Topic_ID"
)

var knownLabels = []string{LabelJustification, LabelChoice, LabelSummary, LabelQuestion, LabelNewTopicID}

var labelLinePattern = regexp.MustCompile(`(?im)^[ \t]*(` + strings.Join(knownLabels, "|") + `)[ \t]*:`)

// ErrMalformedGeneration is matched by every MalformedGenerationError
var ErrMalformedGeneration = errors.New("malformed generation")

// MalformedGenerationError reports output that lacks the required label
type MalformedGenerationError struct {
	Label  string
	Output string
}

func (e *MalformedGenerationError) Error() string {
	out := e.Output
	if len(out) > 80 {
		out = out[:80] + "..."
	}
	return fmt.Sprintf("generation is missing label %q: %q", e.Label, out)
}

func (e *MalformedGenerationError) Is(target error) bool {
	return target == ErrMalformedGeneration
}

// ExtractLabeled cleans a completion and, when label is set, returns only the
// content after the last "label:" up to the next known label line.
func ExtractLabeled(content, label string) (string, error) {
	text := stripEmphasis(content)
	if label == "" {
		return Clean(text), nil
	}

	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[ \t]*:`)
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return "", &MalformedGenerationError{Label: label, Output: content}
	}

	rest := text[locs[len(locs)-1][1]:]
	if next := labelLinePattern.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}

	value := Clean(rest)
	if value == "" {
		return "", &MalformedGenerationError{Label: label, Output: content}
	}
	return value, nil
}

// Clean strips code fences, markdown emphasis and wrapping quotes
func Clean(content string) string {
	text := strings.TrimSpace(content)
	if block := extractFromCodeBlock(text, "```", "```"); block != "" {
		text = block
	}
	text = stripEmphasis(text)
	return trimQuotes(strings.TrimSpace(text))
}

func extractFromCodeBlock(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	// Skip the language tag line after the marker
	if nl := strings.IndexByte(content[contentStart:], '\n'); nl != -1 {
		contentStart += nl + 1
	}

	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(content[contentStart : contentStart+endIdx])
}

func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "__", "")
}

var quotePairs = [][2]string{
	{"''", "''"},
	{`"`, `"`},
	{"'", "'"},
	{"“", "”"},
	{"‘", "’"},
	{"`", "`"},
}

func trimQuotes(s string) string {
	for {
		trimmed := false
		for _, q := range quotePairs {
			if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
				s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
				trimmed = true
				break
			}
		}
		if !trimmed {
			return s
		}
	}
}
