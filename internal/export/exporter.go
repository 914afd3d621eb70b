// Package export writes interview transcripts in long form, one row per
// chat message.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(rows []domain.TranscriptRow, w io.Writer) error
	Extension() string
	ContentType() string
}

// Formats lists the supported format names
var Formats = []string{"csv", "json", "jsonl", "yaml", "md"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return &CSVExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}
