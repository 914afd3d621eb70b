package export

import (
	"encoding/json"
	"io"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// JSONExporter writes all rows as one pretty-printed array
type JSONExporter struct{}

func (e *JSONExporter) Export(rows []domain.TranscriptRow, w io.Writer) error {
	if rows == nil {
		rows = []domain.TranscriptRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rows)
}

func (e *JSONExporter) Extension() string {
	return "json"
}

func (e *JSONExporter) ContentType() string {
	return "application/json"
}

// JSONLExporter writes one JSON object per line
type JSONLExporter struct{}

func (e *JSONLExporter) Export(rows []domain.TranscriptRow, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

func (e *JSONLExporter) ContentType() string {
	return "application/x-ndjson"
}
