package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Placeholder names a value a prompt template can reference as {name}
type Placeholder string

const (
	PlaceholderTopics              Placeholder = "topics"
	PlaceholderSummary             Placeholder = "summary"
	PlaceholderCurrentTopic        Placeholder = "current_topic"
	PlaceholderNextInterviewTopic  Placeholder = "next_interview_topic"
	PlaceholderCurrentTopicHistory Placeholder = "current_topic_history"
	PlaceholderQuestion            Placeholder = "question"
	PlaceholderAnswer              Placeholder = "answer"
	PlaceholderTopicNumber         Placeholder = "topic_number"
	PlaceholderQuestionNumber      Placeholder = "question_number"
)

var knownPlaceholders = map[Placeholder]bool{
	PlaceholderTopics:              true,
	PlaceholderSummary:             true,
	PlaceholderCurrentTopic:        true,
	PlaceholderNextInterviewTopic:  true,
	PlaceholderCurrentTopicHistory: true,
	PlaceholderQuestion:            true,
	PlaceholderAnswer:              true,
	PlaceholderTopicNumber:         true,
	PlaceholderQuestionNumber:      true,
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// ErrUnfilledTemplate is matched by every UnfilledTemplateError
var ErrUnfilledTemplate = errors.New("unfilled prompt template")

// UnfilledTemplateError reports placeholders left without a binding
type UnfilledTemplateError struct {
	Template string
	Missing  []Placeholder
}

func (e *UnfilledTemplateError) Error() string {
	names := make([]string, len(e.Missing))
	for i, p := range e.Missing {
		names[i] = string(p)
	}
	return fmt.Sprintf("template %s: missing bindings for %s", e.Template, strings.Join(names, ", "))
}

func (e *UnfilledTemplateError) Is(target error) bool {
	return target == ErrUnfilledTemplate
}

// Bindings maps placeholders to their values for one render
type Bindings map[Placeholder]string

// Template is a parsed prompt with its declared placeholders
type Template struct {
	name         string
	text         string
	placeholders []Placeholder
}

// ParseTemplate scans text for {name} placeholders and rejects unknown ones
func ParseTemplate(name, text string) (*Template, error) {
	seen := make(map[Placeholder]bool)
	var placeholders []Placeholder

	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		p := Placeholder(m[1])
		if !knownPlaceholders[p] {
			return nil, fmt.Errorf("template %s: unknown placeholder {%s}", name, p)
		}
		if !seen[p] {
			seen[p] = true
			placeholders = append(placeholders, p)
		}
	}

	return &Template{name: name, text: text, placeholders: placeholders}, nil
}

// MustParseTemplate is like ParseTemplate but panics on error
func MustParseTemplate(name, text string) *Template {
	t, err := ParseTemplate(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name
func (t *Template) Name() string {
	return t.name
}

// Placeholders returns the placeholders in order of first appearance
func (t *Template) Placeholders() []Placeholder {
	out := make([]Placeholder, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Render substitutes every placeholder. All of them must be bound.
func (t *Template) Render(b Bindings) (string, error) {
	var missing []Placeholder
	for _, p := range t.placeholders {
		if _, ok := b[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return "", &UnfilledTemplateError{Template: t.name, Missing: missing}
	}

	out := placeholderPattern.ReplaceAllStringFunc(t.text, func(tok string) string {
		return b[Placeholder(tok[1:len(tok)-1])]
	})
	return strings.TrimSpace(out), nil
}
