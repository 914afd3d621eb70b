package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

var csvHeader = []string{"session_id", "interview_id", "order", "role", "content", "topic_index", "question_index", "timestamp"}

// CSVExporter writes a header row followed by one row per message
type CSVExporter struct{}

func (e *CSVExporter) Export(rows []domain.TranscriptRow, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.SessionID,
			r.InterviewID,
			strconv.Itoa(r.Order),
			string(r.Role),
			r.Content,
			strconv.Itoa(r.TopicIndex),
			strconv.Itoa(r.QuestionIndex),
			strconv.FormatInt(r.Timestamp, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (e *CSVExporter) Extension() string {
	return "csv"
}

func (e *CSVExporter) ContentType() string {
	return "text/csv"
}
