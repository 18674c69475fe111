package report

import (
	"io"
	"time"

	"github.com/ppiankov/baselinespectre/internal/aggregate"
	"github.com/ppiankov/baselinespectre/internal/compat"
)

// Reporter is the interface for output formatters.
type Reporter interface {
	Generate(data Data) error
}

// Data holds all information needed to generate a report.
type Data struct {
	Tool      string             `json:"tool"`
	Version   string             `json:"version"`
	Timestamp time.Time          `json:"timestamp"`
	Target    Target             `json:"target"`
	Config    ReportConfig       `json:"config"`
	Results   compat.ScanResults `json:"results"`
	Summary   aggregate.Summary  `json:"summary"`
	Errors    []string           `json:"errors,omitempty"`
}

// Target identifies the file set being scanned.
type Target struct {
	Type        string `json:"type"`
	PatternHash string `json:"pattern_hash"`
}

// ReportConfig captures the scan configuration used.
type ReportConfig struct {
	Patterns     []string `json:"patterns"`
	BaselineYear int      `json:"baseline_year"`
	AllowNewly   bool     `json:"allow_newly"`
	AllowLimited bool     `json:"allow_limited"`
}

// TextReporter generates human-readable terminal output.
type TextReporter struct {
	Writer io.Writer
	// NoColor disables ANSI colors regardless of terminal detection.
	NoColor bool
}

// JSONReporter generates spectre/v1 envelope JSON output.
type JSONReporter struct {
	Writer io.Writer
}

// SARIFReporter generates SARIF v2.1.0 output.
type SARIFReporter struct {
	Writer io.Writer
}

// MarkdownReporter generates a metric table suitable for CI step summaries.
type MarkdownReporter struct {
	Writer io.Writer
}
