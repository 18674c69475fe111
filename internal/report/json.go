package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/baselinespectre/internal/aggregate"
	"github.com/ppiankov/baselinespectre/internal/compat"
)

const envelopeSchema = "spectre/v1"

// jsonEnvelope is the spectre/v1 output document.
type jsonEnvelope struct {
	Schema    string             `json:"$schema"`
	RunID     string             `json:"run_id"`
	Tool      string             `json:"tool"`
	Version   string             `json:"version"`
	Timestamp time.Time          `json:"timestamp"`
	Target    Target             `json:"target"`
	Config    ReportConfig       `json:"config"`
	Results   compat.ScanResults `json:"results"`
	Summary   aggregate.Summary  `json:"summary"`
	Errors    []string           `json:"errors,omitempty"`
}

// newRunID is replaceable in tests.
var newRunID = func() string { return uuid.NewString() }

// Generate writes the scan as a spectre/v1 JSON envelope.
func (r *JSONReporter) Generate(data Data) error {
	results := data.Results
	if results.FileResults == nil {
		results.FileResults = []compat.AnalysisResult{}
	}

	env := jsonEnvelope{
		Schema:    envelopeSchema,
		RunID:     newRunID(),
		Tool:      data.Tool,
		Version:   data.Version,
		Timestamp: data.Timestamp,
		Target:    data.Target,
		Config:    data.Config,
		Results:   results,
		Summary:   data.Summary,
		Errors:    data.Errors,
	}

	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}
