package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/baselinespectre/internal/aggregate"
	"github.com/ppiankov/baselinespectre/internal/compat"
	"github.com/ppiankov/baselinespectre/internal/config"
	"github.com/ppiankov/baselinespectre/internal/discover"
	"github.com/ppiankov/baselinespectre/internal/engine"
	"github.com/ppiankov/baselinespectre/internal/publish"
	"github.com/ppiankov/baselinespectre/internal/report"
	"github.com/ppiankov/baselinespectre/internal/scanner"
	"github.com/spf13/cobra"
)

const (
	defaultBaselineYear = 2023
	defaultFormat       = "text"
	defaultTimeout      = 10 * time.Minute
)

// defaultPatterns cover every language the builtin engine understands.
var defaultPatterns = []string{"**/*.{js,jsx,mjs,cjs,ts,tsx,mts,cts,css,scss,less,html,htm}"}

// ErrCompatibilityErrors is returned with --fail-on-error when the scan
// found error-severity violations.
var ErrCompatibilityErrors = errors.New("compatibility errors found")

type scanOptions struct {
	files        []string
	baselineYear int
	allowNewly   bool
	allowLimited bool
	failOnError  bool
	format       string
	outputFile   string
	sarifFile    string
	workers      int
	featuresFile string
	exclude      []string
	noGitignore  bool
	noProgress   bool
	upload       string
	profile      string
	region       string
	timeout      time.Duration
}

var scanFlags scanOptions

var scanCmd = &cobra.Command{
	Use:   "scan [patterns...]",
	Short: "Scan source files for non-Baseline web features",
	Long: `Scan JavaScript, TypeScript, CSS and HTML files for web platform features that
are not Baseline for the chosen year. Patterns are globs relative to the
working directory and support ** and {a,b} alternatives.

node_modules, dist, build, .git, minified assets and .gitignore'd files are
always skipped.`,
	RunE: runScan,
}

func init() {
	addPolicyFlags(scanCmd, &scanFlags)
	scanCmd.Flags().BoolVar(&scanFlags.failOnError, "fail-on-error", false, "Exit with status 1 when error-severity violations are found")
	scanCmd.Flags().StringVar(&scanFlags.format, "format", defaultFormat, "Output format: text, json, sarif, markdown")
	scanCmd.Flags().StringVarP(&scanFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().StringVar(&scanFlags.sarifFile, "sarif-file", "", "Also write a SARIF report to this path")
	scanCmd.Flags().BoolVar(&scanFlags.noProgress, "no-progress", false, "Disable progress output")
	scanCmd.Flags().StringVar(&scanFlags.upload, "upload", "", "Upload the report to s3://bucket/key")
	scanCmd.Flags().StringVar(&scanFlags.profile, "profile", "", "AWS profile name for --upload")
	scanCmd.Flags().StringVar(&scanFlags.region, "region", "", "AWS region for --upload")
	scanCmd.Flags().DurationVar(&scanFlags.timeout, "timeout", defaultTimeout, "Scan timeout")
}

// addPolicyFlags registers the flags shared by scan and watch.
func addPolicyFlags(cmd *cobra.Command, o *scanOptions) {
	cmd.Flags().StringArrayVar(&o.files, "files", nil, "File glob patterns, space separated (repeatable)")
	cmd.Flags().IntVar(&o.baselineYear, "baseline-year", defaultBaselineYear, "Baseline year features must be available in")
	cmd.Flags().BoolVar(&o.allowNewly, "allow-newly", false, "Accept newly available features")
	cmd.Flags().BoolVar(&o.allowLimited, "allow-limited", false, "Accept limited availability features")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Files analyzed in parallel (default: number of CPUs)")
	cmd.Flags().StringVar(&o.featuresFile, "features-file", "", "Feature catalog YAML (default: builtin)")
	cmd.Flags().StringArrayVar(&o.exclude, "exclude", nil, "Additional glob pattern to skip (repeatable)")
	cmd.Flags().BoolVar(&o.noGitignore, "no-gitignore", false, "Do not honor .gitignore files")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load config and apply defaults
	cfg, err := config.Load(".")
	if err != nil {
		slog.Warn("Failed to load config file", "error", err)
	}
	applyScanConfigDefaults(&scanFlags, cfg)

	if scanFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scanFlags.timeout)
		defer cancel()
	}

	opts := compat.ScanOptions{
		Patterns:     resolvePatterns(args, scanFlags.files, cfg.Files),
		BaselineYear: scanFlags.baselineYear,
		AllowNewly:   scanFlags.allowNewly,
		AllowLimited: scanFlags.allowLimited,
	}

	var progressFn func(scanner.Progress)
	if !scanFlags.noProgress {
		progressFn = func(p scanner.Progress) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s (%s)\n", p.Done, p.Total, p.File, p.Outcome)
		}
	}

	results, err := newScanner(&scanFlags).Scan(ctx, opts, progressFn)
	if err != nil {
		return enhanceError("scan", err)
	}

	data := buildReportData(opts, *results)

	if err := writeReport(scanFlags.format, scanFlags.outputFile, data); err != nil {
		return err
	}
	if scanFlags.sarifFile != "" {
		if err := writeReport("sarif", scanFlags.sarifFile, data); err != nil {
			return err
		}
		slog.Info("SARIF file generated", "path", scanFlags.sarifFile)
	}
	if scanFlags.upload != "" {
		if err := uploadReport(ctx, &scanFlags, data); err != nil {
			return err
		}
	}

	return checkResults(*results, scanFlags.failOnError)
}

// newScanner wires the discoverer and builtin engine from flag values.
func newScanner(o *scanOptions) *scanner.Scanner {
	var discoverOpts []discover.Option
	if len(o.exclude) > 0 {
		discoverOpts = append(discoverOpts, discover.WithExclude(o.exclude...))
	}
	if o.noGitignore {
		discoverOpts = append(discoverOpts, discover.WithoutGitignore())
	}

	var engineOpts []engine.Option
	if o.featuresFile != "" {
		engineOpts = append(engineOpts, engine.WithFeaturesFile(o.featuresFile))
	}

	return scanner.NewScanner(engine.New(engineOpts...), discover.New(".", discoverOpts...), o.workers)
}

func buildReportData(opts compat.ScanOptions, results compat.ScanResults) report.Data {
	return report.Data{
		Tool:      "baselinespectre",
		Version:   version,
		Timestamp: time.Now().UTC(),
		Target: report.Target{
			Type:        "files",
			PatternHash: computeTargetHash(opts.Patterns, opts.BaselineYear),
		},
		Config: report.ReportConfig{
			Patterns:     opts.Patterns,
			BaselineYear: opts.BaselineYear,
			AllowNewly:   opts.AllowNewly,
			AllowLimited: opts.AllowLimited,
		},
		Results: results,
		Summary: aggregate.Summarize(results),
	}
}

// checkResults decides the command outcome once reports are written.
func checkResults(results compat.ScanResults, failOnError bool) error {
	switch {
	case failOnError && results.ErrorCount > 0:
		return fmt.Errorf("%w: %d compatibility error(s)", ErrCompatibilityErrors, results.ErrorCount)
	case results.TotalViolations > 0:
		slog.Warn("Compatibility issues found", "violations", results.TotalViolations, "errors", results.ErrorCount, "warnings", results.WarningCount)
	default:
		slog.Info("No compatibility issues found", "files", results.TotalFiles)
	}
	return nil
}

func applyScanConfigDefaults(o *scanOptions, cfg config.Config) {
	if o.baselineYear == defaultBaselineYear && cfg.BaselineYear > 0 {
		o.baselineYear = cfg.BaselineYear
	}
	if !o.allowNewly && cfg.AllowNewly {
		o.allowNewly = true
	}
	if !o.allowLimited && cfg.AllowLimited {
		o.allowLimited = true
	}
	if !o.failOnError && cfg.FailOnError {
		o.failOnError = true
	}
	if o.format == defaultFormat && cfg.Format != "" {
		o.format = cfg.Format
	}
	if o.outputFile == "" && cfg.Output != "" {
		o.outputFile = cfg.Output
	}
	if o.sarifFile == "" && cfg.SARIFFile != "" {
		o.sarifFile = cfg.SARIFFile
	}
	if o.workers == 0 && cfg.Workers > 0 {
		o.workers = cfg.Workers
	}
	if o.timeout == defaultTimeout && cfg.TimeoutDuration() > 0 {
		o.timeout = cfg.TimeoutDuration()
	}
	if o.featuresFile == "" && cfg.FeaturesFile != "" {
		o.featuresFile = cfg.FeaturesFile
	}
	if len(cfg.Exclude) > 0 {
		o.exclude = append(o.exclude, cfg.Exclude...)
	}
	if !o.noGitignore && cfg.NoGitignore {
		o.noGitignore = true
	}
	if o.upload == "" && cfg.Upload.URI != "" {
		o.upload = cfg.Upload.URI
	}
	if o.profile == "" && cfg.Upload.Profile != "" {
		o.profile = cfg.Upload.Profile
	}
	if o.region == "" && cfg.Upload.Region != "" {
		o.region = cfg.Upload.Region
	}
}

// resolvePatterns picks positional arguments, then --files, then config,
// then the builtin default.
func resolvePatterns(args, flagFiles, cfgFiles []string) []string {
	for _, candidate := range [][]string{args, flagFiles, cfgFiles} {
		if p := splitPatterns(candidate); len(p) > 0 {
			return p
		}
	}
	return defaultPatterns
}

func selectReporter(format string, w io.Writer) (report.Reporter, error) {
	switch format {
	case "json":
		return &report.JSONReporter{Writer: w}, nil
	case "text":
		return &report.TextReporter{Writer: w, NoColor: w != os.Stdout}, nil
	case "sarif":
		return &report.SARIFReporter{Writer: w}, nil
	case "markdown":
		return &report.MarkdownReporter{Writer: w}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use text, json, sarif, or markdown)", format)
	}
}

// writeReport renders data to outputFile, or stdout when empty. Reports are
// rendered in memory first so a failed render leaves no partial file.
func writeReport(format, outputFile string, data report.Data) error {
	if outputFile == "" {
		reporter, err := selectReporter(format, os.Stdout)
		if err != nil {
			return err
		}
		return reporter.Generate(data)
	}

	body, err := renderReport(format, data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputFile, body, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

func renderReport(format string, data report.Data) ([]byte, error) {
	var buf bytes.Buffer
	reporter, err := selectReporter(format, &buf)
	if err != nil {
		return nil, err
	}
	if err := reporter.Generate(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func uploadReport(ctx context.Context, o *scanOptions, data report.Data) error {
	if _, _, err := publish.ParseS3URI(o.upload); err != nil {
		return err
	}
	body, err := renderReport(o.format, data)
	if err != nil {
		return err
	}

	client, err := publish.NewClient(ctx, o.profile, o.region)
	if err != nil {
		return enhanceError("initialize AWS client", err)
	}
	uploader := publish.NewUploader(client.NewS3Client())
	if err := uploader.Upload(ctx, o.upload, body, publish.ContentType(o.format)); err != nil {
		return enhanceError("upload report", err)
	}
	slog.Info("Uploaded report", "uri", o.upload, "region", client.Region())
	return nil
}
