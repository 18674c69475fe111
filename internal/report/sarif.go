package report

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/baselinespectre/internal/compat"
)

// Tool identity written into every SARIF document.
const (
	ToolName           = "baselinespectre"
	ToolVersion        = "1.0.0"
	ToolInformationURI = "https://github.com/ppiankov/baselinespectre"
)

const (
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	sarifVersion = "2.1.0"

	defaultHelpURI       = "https://web.dev/baseline"
	ruleShortDescription = "Baseline compatibility issue"
	ruleCategory         = "compatibility"
)

// SARIFLog is the top-level SARIF v2.1.0 structure.
type SARIFLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun is a single analysis run.
type SARIFRun struct {
	Tool    SARIFTool     `json:"tool"`
	Results []SARIFResult `json:"results"`
}

type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

type SARIFDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []SARIFRule `json:"rules"`
}

// SARIFRule is one entry of the rule catalog.
type SARIFRule struct {
	ID               string         `json:"id"`
	ShortDescription SARIFMessage   `json:"shortDescription"`
	FullDescription  SARIFMessage   `json:"fullDescription"`
	HelpURI          string         `json:"helpUri"`
	Properties       SARIFRuleProps `json:"properties"`
}

type SARIFRuleProps struct {
	Category string `json:"category"`
}

type SARIFMessage struct {
	Text string `json:"text"`
}

// SARIFResult is one finding.
type SARIFResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations"`
}

type SARIFLocation struct {
	PhysicalLocation SARIFPhysical `json:"physicalLocation"`
}

type SARIFPhysical struct {
	ArtifactLocation SARIFArtifact `json:"artifactLocation"`
	Region           SARIFRegion   `json:"region"`
}

type SARIFArtifact struct {
	URI string `json:"uri"`
}

type SARIFRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
}

// GenerateSARIF builds a SARIF document with one result per violation, in
// file then violation order. The rule catalog holds each rule id once, described
// by the first violation that used it. Malformed results fail the whole
// document.
func GenerateSARIF(fileResults []compat.AnalysisResult) (*SARIFLog, error) {
	rules := make([]SARIFRule, 0)
	seen := make(map[string]struct{})
	results := make([]SARIFResult, 0)

	for _, fr := range fileResults {
		if fr.File == "" {
			return nil, &compat.ReportError{Reason: "result has no file path"}
		}
		for i, v := range fr.Violations {
			if err := validateViolation(fr.File, i, v); err != nil {
				return nil, err
			}

			ruleID := v.EffectiveRuleID()
			if _, ok := seen[ruleID]; !ok {
				seen[ruleID] = struct{}{}
				rules = append(rules, newRule(ruleID, v))
			}

			results = append(results, SARIFResult{
				RuleID:  ruleID,
				Level:   sarifLevel(v.Severity),
				Message: SARIFMessage{Text: v.Message},
				Locations: []SARIFLocation{
					{
						PhysicalLocation: SARIFPhysical{
							ArtifactLocation: SARIFArtifact{URI: fr.File},
							Region: SARIFRegion{
								StartLine:   v.Feature.Line,
								StartColumn: v.Feature.Column,
							},
						},
					},
				},
			})
		}
	}

	return &SARIFLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []SARIFRun{
			{
				Tool: SARIFTool{
					Driver: SARIFDriver{
						Name:           ToolName,
						Version:        ToolVersion,
						InformationURI: ToolInformationURI,
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}, nil
}

// Generate writes SARIF v2.1.0 output.
func (r *SARIFReporter) Generate(data Data) error {
	doc, err := GenerateSARIF(data.Results.FileResults)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode SARIF report: %w", err)
	}
	return nil
}

func validateViolation(file string, idx int, v compat.Violation) error {
	switch {
	case v.Message == "":
		return &compat.ReportError{File: file, Reason: fmt.Sprintf("violation %d has no message", idx)}
	case v.Feature.Line < 1:
		return &compat.ReportError{File: file, Reason: fmt.Sprintf("violation %d has invalid line %d", idx, v.Feature.Line)}
	case v.Feature.Column < 1:
		return &compat.ReportError{File: file, Reason: fmt.Sprintf("violation %d has invalid column %d", idx, v.Feature.Column)}
	}
	return nil
}

func newRule(id string, v compat.Violation) SARIFRule {
	help := v.MDNURL()
	if help == "" {
		help = defaultHelpURI
	}
	return SARIFRule{
		ID:               id,
		ShortDescription: SARIFMessage{Text: ruleShortDescription},
		FullDescription:  SARIFMessage{Text: v.Message},
		HelpURI:          help,
		Properties:       SARIFRuleProps{Category: ruleCategory},
	}
}

// sarifLevel maps severity onto the two levels code scanning distinguishes.
func sarifLevel(s compat.Severity) string {
	if s == compat.SeverityError {
		return "error"
	}
	return "warning"
}
