package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/baselinespectre/internal/compat"
	"github.com/ppiankov/baselinespectre/internal/config"
)

func resetScanFlags() {
	scanFlags = scanOptions{
		baselineYear: defaultBaselineYear,
		format:       defaultFormat,
		timeout:      defaultTimeout,
	}
}

func TestExecuteVersion(t *testing.T) {
	version = "1.0.0"
	commit = "abc123"
	date = "2026-02-28"

	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}

func TestExecuteNoArgs(t *testing.T) {
	rootCmd.SetArgs([]string{})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	version = "0.1.0"
	commit = "abc123"
	date = "2026-02-28"

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(buf.String(), "baselinespectre 0.1.0 (commit: abc123") {
		t.Errorf("unexpected version output: %q", buf.String())
	}
}

func TestSubcommandsExist(t *testing.T) {
	for _, name := range []string{"scan", "watch", "init", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil {
			t.Fatalf("Find(%s) error: %v", name, err)
		}
		if cmd.Name() != name {
			t.Errorf("command name = %q, want %s", cmd.Name(), name)
		}
	}
}

func TestEnhanceErrorWithHint(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{&compat.DiscoveryError{Pattern: "[", Err: errors.New("syntax error in pattern")}, "Check the glob syntax"},
		{errors.New("load feature data: read features file x.yaml: no such file"), "--features-file"},
		{fmt.Errorf("%w: 1999", compat.ErrInvalidBaselineYear), "2015 or later"},
		{errors.New("NoCredentialProviders: no valid providers"), "Configure AWS credentials"},
		{errors.New("ExpiredToken: token expired"), "session token expired"},
		{errors.New("AccessDenied: not authorized"), "s3:PutObject"},
		{errors.New("NoSuchBucket: bucket missing"), "--upload URI"},
		{errors.New("RequestExpired: request timed out"), "Check system clock"},
	}

	for _, tt := range tests {
		err := enhanceError("test", tt.err)
		if !strings.Contains(err.Error(), tt.hint) {
			t.Errorf("enhanceError(%q) missing hint %q, got: %s", tt.err, tt.hint, err)
		}
		if !errors.Is(err, tt.err) {
			t.Errorf("enhanceError(%q) does not wrap the cause", tt.err)
		}
	}
}

func TestEnhanceErrorWithoutHint(t *testing.T) {
	err := enhanceError("scan", errors.New("some random error"))
	if strings.Contains(err.Error(), "hint:") {
		t.Errorf("unexpected hint in: %s", err)
	}
	if !strings.Contains(err.Error(), "scan:") {
		t.Errorf("missing action prefix in: %s", err)
	}
}

func TestComputeTargetHash(t *testing.T) {
	h1 := computeTargetHash([]string{"src/**/*.js", "*.css"}, 2023)
	h2 := computeTargetHash([]string{"*.css", "src/**/*.js"}, 2023)
	if h1 != h2 {
		t.Error("pattern order should not change the hash")
	}

	h3 := computeTargetHash([]string{"src/**/*.js", "*.css"}, 2022)
	if h1 == h3 {
		t.Error("different inputs should produce different hashes")
	}

	if !strings.HasPrefix(h1, "sha256:") {
		t.Errorf("hash should start with sha256:, got %q", h1)
	}
}

func TestResolvePatterns(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags []string
		cfg   []string
		want  []string
	}{
		{"args win", []string{"a.js"}, []string{"b.js"}, []string{"c.js"}, []string{"a.js"}},
		{"flags before config", nil, []string{"src/**/*.js lib/*.ts"}, []string{"c.js"}, []string{"src/**/*.js", "lib/*.ts"}},
		{"config", nil, nil, []string{"c.js"}, []string{"c.js"}},
		{"blank flags fall through", nil, []string{"  "}, nil, defaultPatterns},
		{"default", nil, nil, nil, defaultPatterns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePatterns(tt.args, tt.flags, tt.cfg)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("resolvePatterns() = %v, want %v", got, tt.want)
			}
		})
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Log("failed to restore dir:", err)
		}
	})
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	initFlags.force = false
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ".baselinespectre.yaml")); err != nil {
		t.Error("config file not created")
	}
	if _, err := os.Stat(filepath.Join(dir, ".github", "workflows", "baseline.yml")); err != nil {
		t.Error("workflow file not created")
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if cfg.BaselineYear != 2023 || len(cfg.Files) != 3 {
		t.Errorf("unexpected sample config: %+v", cfg)
	}
}

func TestRunInitNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, ".baselinespectre.yaml"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	initFlags.force = false
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".baselinespectre.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing" {
		t.Error("config file should not be overwritten without --force")
	}
}

func TestRunInitForce(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, ".baselinespectre.yaml"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	initFlags.force = true
	defer func() { initFlags.force = false }()
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".baselinespectre.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "old" {
		t.Error("config file should be overwritten with --force")
	}
}

func TestSelectReporter(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"sarif", false},
		{"markdown", false},
		{"spectrehub", true},
		{"invalid", true},
	}
	for _, tt := range tests {
		r, err := selectReporter(tt.format, &bytes.Buffer{})
		if tt.wantErr {
			if err == nil {
				t.Errorf("selectReporter(%q) should error", tt.format)
			}
		} else {
			if err != nil {
				t.Errorf("selectReporter(%q) error: %v", tt.format, err)
			}
			if r == nil {
				t.Errorf("selectReporter(%q) returned nil reporter", tt.format)
			}
		}
	}
}

func TestWriteReportOutputFile(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "report.sarif")

	data := buildReportData(compat.ScanOptions{Patterns: []string{"*.js"}, BaselineYear: 2023}, compat.ScanResults{})
	if err := writeReport("sarif", outFile, data); err != nil {
		t.Fatalf("writeReport() error: %v", err)
	}

	raw, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"results": []`) {
		t.Errorf("unexpected SARIF output: %s", raw)
	}
}

func TestWriteReportMalformedLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "report.sarif")

	results := compat.ScanResults{
		FileResults: []compat.AnalysisResult{{File: "a.js", Violations: []compat.Violation{{Severity: compat.SeverityError}}}},
	}
	data := buildReportData(compat.ScanOptions{BaselineYear: 2023}, results)
	if err := writeReport("sarif", outFile, data); err == nil {
		t.Fatal("expected error for malformed results")
	}
	if _, err := os.Stat(outFile); !os.IsNotExist(err) {
		t.Error("partial report file written")
	}
}

func TestApplyScanConfigDefaults(t *testing.T) {
	resetScanFlags()
	defer resetScanFlags()

	cfg := config.Config{
		BaselineYear: 2021,
		AllowNewly:   true,
		FailOnError:  true,
		Format:       "json",
		Output:       "out.json",
		SARIFFile:    "out.sarif",
		Workers:      3,
		Timeout:      "1m",
		FeaturesFile: "features.yaml",
		Exclude:      []string{"**/vendor/**"},
		NoGitignore:  true,
		Upload:       config.Upload{URI: "s3://b/k", Profile: "ci", Region: "eu-west-1"},
	}

	applyScanConfigDefaults(&scanFlags, cfg)

	if scanFlags.baselineYear != 2021 {
		t.Errorf("baselineYear = %d, want 2021", scanFlags.baselineYear)
	}
	if !scanFlags.allowNewly || scanFlags.allowLimited {
		t.Errorf("allowNewly/allowLimited = %v/%v", scanFlags.allowNewly, scanFlags.allowLimited)
	}
	if !scanFlags.failOnError || !scanFlags.noGitignore {
		t.Error("boolean config values not applied")
	}
	if scanFlags.format != "json" || scanFlags.outputFile != "out.json" || scanFlags.sarifFile != "out.sarif" {
		t.Errorf("output settings = %q/%q/%q", scanFlags.format, scanFlags.outputFile, scanFlags.sarifFile)
	}
	if scanFlags.workers != 3 {
		t.Errorf("workers = %d, want 3", scanFlags.workers)
	}
	if scanFlags.timeout != time.Minute {
		t.Errorf("timeout = %v, want 1m", scanFlags.timeout)
	}
	if scanFlags.featuresFile != "features.yaml" {
		t.Errorf("featuresFile = %q", scanFlags.featuresFile)
	}
	if len(scanFlags.exclude) != 1 {
		t.Errorf("exclude = %v", scanFlags.exclude)
	}
	if scanFlags.upload != "s3://b/k" || scanFlags.profile != "ci" || scanFlags.region != "eu-west-1" {
		t.Errorf("upload settings = %q/%q/%q", scanFlags.upload, scanFlags.profile, scanFlags.region)
	}
}

func TestApplyScanConfigDefaultsNoOverride(t *testing.T) {
	resetScanFlags()
	defer resetScanFlags()

	// Non-default values, as if passed on the command line
	scanFlags.baselineYear = 2020
	scanFlags.format = "sarif"
	scanFlags.workers = 8
	scanFlags.timeout = 30 * time.Second
	scanFlags.exclude = []string{"**/gen/**"}

	cfg := config.Config{
		BaselineYear: 2021,
		Format:       "json",
		Workers:      3,
		Timeout:      "1m",
		Exclude:      []string{"**/vendor/**"},
	}

	applyScanConfigDefaults(&scanFlags, cfg)

	if scanFlags.baselineYear != 2020 {
		t.Errorf("baselineYear = %d, want 2020 (flag should win)", scanFlags.baselineYear)
	}
	if scanFlags.format != "sarif" {
		t.Errorf("format = %q, want sarif (flag should win)", scanFlags.format)
	}
	if scanFlags.workers != 8 {
		t.Errorf("workers = %d, want 8 (flag should win)", scanFlags.workers)
	}
	if scanFlags.timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s (flag should win)", scanFlags.timeout)
	}
	if len(scanFlags.exclude) != 2 {
		t.Errorf("exclude = %v, want flag and config patterns", scanFlags.exclude)
	}
}

func TestCheckResults(t *testing.T) {
	withErrors := compat.ScanResults{TotalViolations: 2, ErrorCount: 1, WarningCount: 1}
	warningsOnly := compat.ScanResults{TotalViolations: 1, WarningCount: 1}

	if err := checkResults(withErrors, true); !errors.Is(err, ErrCompatibilityErrors) {
		t.Errorf("checkResults(errors, failOnError) = %v, want ErrCompatibilityErrors", err)
	}
	if err := checkResults(withErrors, false); err != nil {
		t.Errorf("checkResults(errors, !failOnError) = %v, want nil", err)
	}
	if err := checkResults(warningsOnly, true); err != nil {
		t.Errorf("checkResults(warnings, failOnError) = %v, want nil", err)
	}
}

// scanDir prepares a project with one disallowed API call.
func scanDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "test.js"), []byte(`navigator.share({ title: "test" });`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clean.js"), []byte("const x = 1;"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunScanBraceFilesFlag(t *testing.T) {
	dir := scanDir(t)
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte(".card { field-sizing: content; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	resetScanFlags()
	defer resetScanFlags()

	rootCmd.SetArgs([]string{"scan", "--no-progress", "--baseline-year", "2022", "--format", "json", "-o", "report.json", "--files", "*.{js,css}", "--exclude", "{clean,other}.js"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		Results compat.ScanResults `json:"results"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Results.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2 (test.js, style.css)", env.Results.TotalFiles)
	}
}

func TestRunScanJSON(t *testing.T) {
	dir := scanDir(t)
	resetScanFlags()
	defer resetScanFlags()

	rootCmd.SetArgs([]string{"scan", "--no-progress", "--baseline-year", "2022", "--format", "json", "-o", "report.json", "--sarif-file", "results.sarif", "*.js"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		Schema  string             `json:"$schema"`
		Results compat.ScanResults `json:"results"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Schema != "spectre/v1" {
		t.Errorf("schema = %q", env.Schema)
	}
	if env.Results.TotalFiles != 2 || env.Results.FilesWithIssues != 1 || env.Results.TotalViolations != 1 {
		t.Errorf("unexpected totals: %+v", env.Results)
	}

	sarif, err := os.ReadFile(filepath.Join(dir, "results.sarif"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(sarif), `"uri": "test.js"`) {
		t.Errorf("SARIF missing finding location: %s", sarif)
	}
}

func TestRunScanFailOnError(t *testing.T) {
	scanDir(t)
	resetScanFlags()
	defer resetScanFlags()

	rootCmd.SetArgs([]string{"scan", "--no-progress", "--fail-on-error", "-o", "report.txt", "*.js"})
	err := rootCmd.Execute()
	if !errors.Is(err, ErrCompatibilityErrors) {
		t.Fatalf("Execute() error = %v, want ErrCompatibilityErrors", err)
	}
}

func TestRunScanAllowLimited(t *testing.T) {
	scanDir(t)
	resetScanFlags()
	defer resetScanFlags()

	rootCmd.SetArgs([]string{"scan", "--no-progress", "--fail-on-error", "--allow-limited", "-o", "report.md", "--format", "markdown", "*.js"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	raw, err := os.ReadFile("report.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "| Total Violations | 0 |") {
		t.Errorf("unexpected markdown: %s", raw)
	}
}

func TestRunScanInvalidPattern(t *testing.T) {
	scanDir(t)
	resetScanFlags()
	defer resetScanFlags()

	rootCmd.SetArgs([]string{"scan", "--no-progress", "src/[.js"})
	err := rootCmd.Execute()
	var discoveryErr *compat.DiscoveryError
	if !errors.As(err, &discoveryErr) {
		t.Fatalf("Execute() error = %v, want *compat.DiscoveryError", err)
	}
	if !strings.Contains(err.Error(), "hint:") {
		t.Errorf("missing hint in: %s", err)
	}
}

func TestRunScanInvalidYear(t *testing.T) {
	scanDir(t)
	resetScanFlags()
	defer resetScanFlags()

	rootCmd.SetArgs([]string{"scan", "--no-progress", "--baseline-year", "1999", "*.js"})
	if err := rootCmd.Execute(); !errors.Is(err, compat.ErrInvalidBaselineYear) {
		t.Fatalf("Execute() error = %v, want ErrInvalidBaselineYear", err)
	}
}

func TestRunScanInvalidUploadURI(t *testing.T) {
	scanDir(t)
	resetScanFlags()
	defer resetScanFlags()

	rootCmd.SetArgs([]string{"scan", "--no-progress", "-o", "report.txt", "--upload", "https://example.com/report", "*.js"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for invalid upload URI")
	}
}
