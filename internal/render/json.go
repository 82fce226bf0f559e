package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/crimson-sun/pipelens/internal/model"
)

// JSONWriter encodes reconstructed tasks and statistics as JSON, one document
// per call, optionally pretty-printed.
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter creates a JSONWriter targeting w.
func NewJSONWriter(w io.Writer, pretty bool) *JSONWriter {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &JSONWriter{enc: enc}
}

// WriteTasks encodes the task forest.
func (j *JSONWriter) WriteTasks(tasks []*model.Task) error {
	if err := j.enc.Encode(tasks); err != nil {
		return fmt.Errorf("json output: %w", err)
	}
	return nil
}

// Report bundles both aggregations for a single document.
type Report struct {
	Nodes  []*model.NodeStat  `json:"nodes"`
	Phases []*model.PhaseStat `json:"phases"`
}

// WriteReport encodes a statistics report.
func (j *JSONWriter) WriteReport(r Report) error {
	if err := j.enc.Encode(r); err != nil {
		return fmt.Errorf("json output: %w", err)
	}
	return nil
}
