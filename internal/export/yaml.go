package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// YAMLExporter exports rows as a YAML sequence
type YAMLExporter struct{}

func (e *YAMLExporter) Export(rows []domain.TranscriptRow, w io.Writer) error {
	if rows == nil {
		rows = []domain.TranscriptRow{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(rows)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}

func (e *YAMLExporter) ContentType() string {
	return "application/yaml"
}
