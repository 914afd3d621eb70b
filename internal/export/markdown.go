package export

import (
	"fmt"
	"io"
	"time"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// MarkdownExporter renders one readable section per session
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(rows []domain.TranscriptRow, w io.Writer) error {
	current := ""
	for _, r := range rows {
		if r.SessionID != current {
			if current != "" {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			current = r.SessionID
			if _, err := fmt.Fprintf(w, "# Session %s (%s)\n\n", r.SessionID, r.InterviewID); err != nil {
				return err
			}
		}

		speaker := "Interviewer"
		if r.Role == domain.RoleRespondent {
			speaker = "Respondent"
		}
		ts := time.Unix(r.Timestamp, 0).UTC().Format(time.RFC3339)
		if _, err := fmt.Fprintf(w, "**%s** (topic %d, question %d, %s)\n\n%s\n\n", speaker, r.TopicIndex+1, r.QuestionIndex, ts, r.Content); err != nil {
			return err
		}
	}
	return nil
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}

func (e *MarkdownExporter) ContentType() string {
	return "text/markdown"
}
