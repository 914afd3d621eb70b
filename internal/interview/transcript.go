package interview

import (
	"fmt"
	"strings"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// FormatTranscript renders messages the way prompts quote the conversation
func FormatTranscript(msgs []domain.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		speaker := "Interviewer"
		if m.Role == domain.RoleRespondent {
			speaker = "Interviewee"
		}
		fmt.Fprintf(&b, "%s: ''%s''", speaker, m.Content)
	}
	return b.String()
}

// FormatTopics renders the plan as a numbered list
func FormatTopics(topics []domain.Topic) string {
	var b strings.Builder
	for i, t := range topics {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, t.Text)
	}
	return b.String()
}
