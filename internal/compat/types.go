package compat

// Severity levels for violations.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Category classifies a detected feature.
type Category string

const (
	CategoryAPI        Category = "api"
	CategoryCSS        Category = "css"
	CategoryHTML       Category = "html"
	CategoryJavaScript Category = "javascript"
)

// Language identifies the source language of a scanned file.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageCSS        Language = "css"
	LanguageHTML       Language = "html"
)

// Availability is the Baseline status of a web platform feature.
type Availability string

const (
	AvailabilityWidely  Availability = "widely"
	AvailabilityNewly   Availability = "newly"
	AvailabilityLimited Availability = "limited"
)

// PolicyModeYear selects features by the year they became Baseline.
const PolicyModeYear = "year"

// FallbackRuleID is reported for violations that carry no rule identifier.
const FallbackRuleID = "baseline-compatibility"

// MinBaselineYear is the earliest year Baseline data is tracked for.
const MinBaselineYear = 2015

// ScanOptions is the input to a single scan.
type ScanOptions struct {
	Patterns     []string `json:"patterns"`
	BaselineYear int      `json:"baselineYear"`
	AllowNewly   bool     `json:"allowNewly"`
	AllowLimited bool     `json:"allowLimited"`
}

// Policy is the compatibility policy handed to the analyzer for every file of a scan.
type Policy struct {
	Mode         string `json:"mode"`
	Year         int    `json:"year"`
	AllowNewly   bool   `json:"allowNewly"`
	AllowLimited bool   `json:"allowLimited"`
}

// PolicyFromOptions derives the year policy from scan options.
func PolicyFromOptions(opts ScanOptions) Policy {
	return Policy{
		Mode:         PolicyModeYear,
		Year:         opts.BaselineYear,
		AllowNewly:   opts.AllowNewly,
		AllowLimited: opts.AllowLimited,
	}
}

// Feature is one detected usage of a web platform feature.
type Feature struct {
	Feature  string   `json:"feature"`
	Category Category `json:"category"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Source   string   `json:"source"`
}

// BaselineInfo carries the availability data behind a violation.
type BaselineInfo struct {
	MDNURL   string       `json:"mdn_url,omitempty"`
	Status   Availability `json:"status,omitempty"`
	LowYear  int          `json:"low_year,omitempty"`
	HighYear int          `json:"high_year,omitempty"`
}

// Violation is a feature usage that fails the active policy.
type Violation struct {
	RuleID       string        `json:"ruleId,omitempty"`
	Severity     Severity      `json:"severity"`
	Message      string        `json:"message"`
	Feature      Feature       `json:"feature"`
	BaselineInfo *BaselineInfo `json:"baselineInfo,omitempty"`
}

// EffectiveRuleID returns the rule identifier, or FallbackRuleID when unset.
func (v Violation) EffectiveRuleID() string {
	if v.RuleID == "" {
		return FallbackRuleID
	}
	return v.RuleID
}

// MDNURL returns the documentation link attached to the violation, if any.
func (v Violation) MDNURL() string {
	if v.BaselineInfo == nil {
		return ""
	}
	return v.BaselineInfo.MDNURL
}

// Suggestion is a remediation hint produced by the analyzer.
type Suggestion struct {
	Feature     string `json:"feature"`
	Line        int    `json:"line"`
	Message     string `json:"message"`
	Alternative string `json:"alternative,omitempty"`
}

// Metrics summarizes feature availability within one file.
type Metrics struct {
	CompatibilityScore float64 `json:"compatibilityScore"`
	TotalFeatures      int     `json:"totalFeatures"`
	WidelyAvailable    int     `json:"widelyAvailable"`
	NewlyAvailable     int     `json:"newlyAvailable"`
	LimitedSupport     int     `json:"limitedSupport"`
}

// AnalysisResult is the analyzer output for one file.
type AnalysisResult struct {
	File        string       `json:"file"`
	Language    Language     `json:"language"`
	Features    []Feature    `json:"features"`
	Violations  []Violation  `json:"violations"`
	Suggestions []Suggestion `json:"suggestions"`
	Metrics     Metrics      `json:"metrics"`
}

// ScanResults aggregates the outcome of a scan.
type ScanResults struct {
	TotalFiles      int              `json:"totalFiles"`
	FilesWithIssues int              `json:"filesWithIssues"`
	TotalViolations int              `json:"totalViolations"`
	ErrorCount      int              `json:"errorCount"`
	WarningCount    int              `json:"warningCount"`
	FileResults     []AnalysisResult `json:"fileResults"`
}
