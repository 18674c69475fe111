package aggregate

import (
	"github.com/ppiankov/baselinespectre/internal/compat"
)

// Reduce folds per-file outcomes into scan totals. Every outcome counts as a
// scanned file; only files with violations are retained, in outcome order.
func Reduce(outcomes []Outcome) compat.ScanResults {
	results := compat.ScanResults{
		TotalFiles:  len(outcomes),
		FileResults: []compat.AnalysisResult{},
	}

	for _, o := range outcomes {
		if o.Kind != OutcomeIssues || o.Result == nil || len(o.Result.Violations) == 0 {
			continue
		}

		results.FileResults = append(results.FileResults, *o.Result)
		results.TotalViolations += len(o.Result.Violations)
		for _, v := range o.Result.Violations {
			switch v.Severity {
			case compat.SeverityError:
				results.ErrorCount++
			case compat.SeverityWarning:
				results.WarningCount++
			}
		}
	}

	results.FilesWithIssues = len(results.FileResults)
	return results
}

// Summarize computes histograms over the retained file results.
func Summarize(results compat.ScanResults) Summary {
	summary := Summary{
		TotalFiles:      results.TotalFiles,
		FilesWithIssues: results.FilesWithIssues,
		TotalViolations: results.TotalViolations,
		BySeverity:      make(map[string]int),
		ByRule:          make(map[string]int),
		ByCategory:      make(map[string]int),
		ByFeature:       make(map[string]int),
		ByLanguage:      make(map[string]int),
	}

	var scoreSum float64
	for _, r := range results.FileResults {
		scoreSum += r.Metrics.CompatibilityScore
		summary.ByLanguage[string(r.Language)]++
		for _, v := range r.Violations {
			summary.BySeverity[string(v.Severity)]++
			summary.ByRule[v.EffectiveRuleID()]++
			summary.ByCategory[string(v.Feature.Category)]++
			summary.ByFeature[v.Feature.Feature]++
		}
	}
	if len(results.FileResults) > 0 {
		summary.AverageScore = scoreSum / float64(len(results.FileResults))
	}

	return summary
}
