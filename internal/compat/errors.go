package compat

import (
	"errors"
	"fmt"
)

// ErrInvalidBaselineYear is returned when scan options carry an unusable year.
var ErrInvalidBaselineYear = errors.New("invalid baseline year")

// DiscoveryError is returned when file discovery cannot expand a pattern.
// It aborts the whole scan.
type DiscoveryError struct {
	Pattern string
	Err     error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover files for %q: %v", e.Pattern, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// AnalysisFailure marks a single file that could not be read or analyzed.
type AnalysisFailure struct {
	File string
	Err  error
}

func (e *AnalysisFailure) Error() string {
	return fmt.Sprintf("analyze %s: %v", e.File, e.Err)
}

func (e *AnalysisFailure) Unwrap() error { return e.Err }

// ReportError is returned when a result is too malformed to report.
type ReportError struct {
	File   string
	Reason string
}

func (e *ReportError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("generate report: %s", e.Reason)
	}
	return fmt.Sprintf("generate report for %s: %s", e.File, e.Reason)
}
