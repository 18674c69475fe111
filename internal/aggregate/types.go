package aggregate

import (
	"github.com/ppiankov/baselinespectre/internal/compat"
)

// OutcomeKind tags the result of analyzing one file.
type OutcomeKind int

const (
	// OutcomeClean is a file that analyzed without violations.
	OutcomeClean OutcomeKind = iota
	// OutcomeIssues is a file with at least one violation.
	OutcomeIssues
	// OutcomeFailed is a file that could not be read or analyzed.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeClean:
		return "clean"
	case OutcomeIssues:
		return "issues"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged per-file result fed into Reduce.
type Outcome struct {
	File   string
	Kind   OutcomeKind
	Result *compat.AnalysisResult
	Err    error
}

// Succeeded builds the outcome for a file the analyzer accepted.
func Succeeded(file string, result *compat.AnalysisResult) Outcome {
	kind := OutcomeClean
	if result != nil && len(result.Violations) > 0 {
		kind = OutcomeIssues
	}
	return Outcome{File: file, Kind: kind, Result: result}
}

// Failed builds the outcome for a file that could not be analyzed.
func Failed(file string, err error) Outcome {
	return Outcome{File: file, Kind: OutcomeFailed, Err: err}
}

// Summary holds breakdowns of the retained violations.
type Summary struct {
	TotalFiles      int            `json:"total_files"`
	FilesWithIssues int            `json:"files_with_issues"`
	TotalViolations int            `json:"total_violations"`
	AverageScore    float64        `json:"average_score"`
	BySeverity      map[string]int `json:"by_severity"`
	ByRule          map[string]int `json:"by_rule"`
	ByCategory      map[string]int `json:"by_category"`
	ByFeature       map[string]int `json:"by_feature"`
	ByLanguage      map[string]int `json:"by_language"`
}
