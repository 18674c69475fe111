package report

import (
	"strings"
)

// Generate writes a Markdown summary table, the shape CI step summaries expect.
func (r *MarkdownReporter) Generate(data Data) error {
	res := data.Results
	w := &errWriter{w: r.Writer}

	w.println("## Baseline Compatibility Report")
	w.println("")
	w.println("| Metric | Value |")
	w.println("| --- | --- |")
	w.printf("| Files Scanned | %d |\n", res.TotalFiles)
	w.printf("| Files with Issues | %d |\n", res.FilesWithIssues)
	w.printf("| Total Violations | %d |\n", res.TotalViolations)
	w.printf("| Errors | %d |\n", res.ErrorCount)
	w.printf("| Warnings | %d |\n", res.WarningCount)
	w.println("")

	if res.TotalViolations == 0 {
		w.println("No compatibility issues found.")
		return w.err
	}

	w.println("### Issues")
	w.println("")
	w.println("| Severity | File | Line | Feature | Message |")
	w.println("| --- | --- | --- | --- | --- |")
	for _, fr := range res.FileResults {
		for _, v := range fr.Violations {
			w.printf("| %s | `%s` | %d | %s | %s |\n",
				v.Severity, fr.File, v.Feature.Line, v.Feature.Feature, escapeCell(v.Message))
		}
	}
	return w.err
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
