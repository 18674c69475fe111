package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate sample config and CI workflow",
	Long:  `Creates a sample .baselinespectre.yaml config file and a GitHub Actions workflow that uploads SARIF results to code scanning.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(_ *cobra.Command, _ []string) error {
	configPath := ".baselinespectre.yaml"
	workflowPath := filepath.Join(".github", "workflows", "baseline.yml")

	if err := writeIfNotExists(configPath, sampleConfig, initFlags.force); err != nil {
		return err
	}
	if err := writeIfNotExists(workflowPath, sampleWorkflow, initFlags.force); err != nil {
		return err
	}

	fmt.Printf("Created %s and %s\n", configPath, workflowPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit .baselinespectre.yaml to set file patterns and the baseline year")
	fmt.Println("  2. Run: baselinespectre scan")
	fmt.Println("  3. Commit the workflow to get findings in GitHub code scanning")
	return nil
}

func writeIfNotExists(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Skipping %s (already exists, use --force to overwrite)\n", path)
			return nil
		}
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return os.WriteFile(path, []byte(content), 0o644)
}

const sampleConfig = `# baselinespectre configuration
# See: https://github.com/ppiankov/baselinespectre

# Files to scan (globs, ** and {a,b} supported)
files:
  - "src/**/*.{js,jsx,ts,tsx}"
  - "src/**/*.{css,scss}"
  - "**/*.html"

# Features must be Baseline in this year
baseline_year: 2023

# Accept newly available features
allow_newly: false

# Accept limited availability features
allow_limited: false

# Exit with status 1 when error-severity violations are found
fail_on_error: true

# Output format: text, json, sarif, or markdown
format: text

# Also write SARIF for code scanning
# sarif_file: baseline-results.sarif

# Files analyzed in parallel (default: number of CPUs)
# workers: 4

# Scan timeout
timeout: 10m

# Custom feature catalog (default: builtin)
# features_file: features.yaml

# Additional paths to skip
# exclude:
#   - "**/vendor/**"

# Upload the report to S3
# upload:
#   uri: s3://my-bucket/baseline/report.json
#   profile: default
#   region: us-east-1
`

const sampleWorkflow = `name: Baseline compatibility

on:
  pull_request:
  push:
    branches: [main]

permissions:
  contents: read
  security-events: write

jobs:
  baseline:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: stable
      - run: go install github.com/ppiankov/baselinespectre/cmd/baselinespectre@latest
      - run: baselinespectre scan --no-progress --format markdown --sarif-file baseline-results.sarif >> "$GITHUB_STEP_SUMMARY"
      - uses: github/codeql-action/upload-sarif@v3
        if: always()
        with:
          sarif_file: baseline-results.sarif
`
