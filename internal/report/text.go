package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/ppiankov/baselinespectre/internal/compat"
)

// Generate writes human-readable terminal output.
func (r *TextReporter) Generate(data Data) error {
	bold := r.color(color.Bold)
	red := r.color(color.FgRed)
	yellow := r.color(color.FgYellow)
	green := r.color(color.FgGreen)

	w := &errWriter{w: r.Writer}

	w.println(bold("baselinespectre: Baseline Compatibility Report"))
	w.println(strings.Repeat("=", 46))
	w.printf("Baseline year: %d\n\n", data.Config.BaselineYear)

	res := data.Results
	if res.TotalViolations == 0 {
		w.println(green("No compatibility issues found."))
		w.println("")
		writeTextSummary(w, data)
		return w.err
	}

	w.printf("Found %d compatibility issues in %d of %d files\n\n",
		res.TotalViolations, res.FilesWithIssues, res.TotalFiles)

	tw := tabwriter.NewWriter(r.Writer, 0, 4, 2, ' ', 0)
	tw2 := &errWriter{w: tw}
	tw2.printf("SEVERITY\tLOCATION\tFEATURE\tRULE\tMESSAGE\n")
	tw2.printf("--------\t--------\t-------\t----\t-------\n")

	for _, fr := range res.FileResults {
		for _, v := range fr.Violations {
			sev := yellow(pad(string(v.Severity)))
			if v.Severity == compat.SeverityError {
				sev = red(pad(string(v.Severity)))
			}
			tw2.printf("%s\t%s:%d:%d\t%s\t%s\t%s\n",
				sev, fr.File, v.Feature.Line, v.Feature.Column,
				v.Feature.Feature, v.EffectiveRuleID(), v.Message)
		}
	}
	if tw2.err != nil {
		return tw2.err
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	writeSuggestions(w, res.FileResults)

	w.println("")
	writeTextSummary(w, data)
	return w.err
}

// color returns a formatter that honors NoColor.
func (r *TextReporter) color(attrs ...color.Attribute) func(a ...any) string {
	c := color.New(attrs...)
	if r.NoColor {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// pad keeps colored severity cells the same width so tabwriter aligns them.
func pad(s string) string {
	return fmt.Sprintf("%-7s", s)
}

func writeSuggestions(w *errWriter, results []compat.AnalysisResult) {
	var lines []string
	for _, fr := range results {
		for _, s := range fr.Suggestions {
			lines = append(lines, fmt.Sprintf("  %s:%d %s: %s", fr.File, s.Line, s.Message, s.Alternative))
		}
	}
	if len(lines) == 0 {
		return
	}
	w.printf("\nSuggestions (%d):\n", len(lines))
	for _, l := range lines {
		w.println(l)
	}
}

func writeTextSummary(w *errWriter, data Data) {
	res := data.Results
	w.println("Summary")
	w.println("-------")
	w.printf("Files scanned:       %d\n", res.TotalFiles)
	w.printf("Files with issues:   %d\n", res.FilesWithIssues)
	w.printf("Total violations:    %d\n", res.TotalViolations)
	w.printf("Errors:              %d\n", res.ErrorCount)
	w.printf("Warnings:            %d\n", res.WarningCount)
	if res.FilesWithIssues > 0 {
		w.printf("Average score:       %.0f\n", data.Summary.AverageScore)
	}

	if len(data.Summary.ByRule) > 0 {
		parts := formatMapSorted(data.Summary.ByRule)
		w.printf("By rule:             %s\n", strings.Join(parts, ", "))
	}
	if len(data.Summary.ByCategory) > 0 {
		parts := formatMapSorted(data.Summary.ByCategory)
		w.printf("By category:         %s\n", strings.Join(parts, ", "))
	}

	if len(data.Errors) > 0 {
		w.printf("\nWarnings (%d):\n", len(data.Errors))
		for _, e := range data.Errors {
			w.printf("  - %s\n", e)
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func formatMapSorted(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return parts
}
