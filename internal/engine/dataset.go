package engine

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/baselinespectre/internal/compat"
)

//go:embed features.yaml
var defaultDataset []byte

// FeatureDef describes one tracked web platform feature.
type FeatureDef struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name"`
	Category    compat.Category     `yaml:"category"`
	Languages   []compat.Language   `yaml:"languages"`
	Pattern     string              `yaml:"pattern"`
	Status      compat.Availability `yaml:"status"`
	LowYear     int                 `yaml:"low_year"`
	HighYear    int                 `yaml:"high_year"`
	MDNURL      string              `yaml:"mdn_url"`
	Alternative string              `yaml:"alternative"`

	re *regexp.Regexp
}

func (f *FeatureDef) appliesTo(lang compat.Language) bool {
	return slices.Contains(f.Languages, lang)
}

// Dataset is the parsed feature catalog.
type Dataset struct {
	Features []FeatureDef `yaml:"features"`
}

// ParseDataset parses and validates a YAML feature catalog.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse feature dataset: %w", err)
	}
	if len(ds.Features) == 0 {
		return nil, fmt.Errorf("parse feature dataset: no features defined")
	}

	seen := make(map[string]bool, len(ds.Features))
	for i := range ds.Features {
		f := &ds.Features[i]
		if f.ID == "" {
			return nil, fmt.Errorf("feature #%d: missing id", i+1)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("feature %s: duplicate id", f.ID)
		}
		seen[f.ID] = true

		if f.Name == "" {
			f.Name = f.ID
		}
		if len(f.Languages) == 0 {
			return nil, fmt.Errorf("feature %s: no languages", f.ID)
		}
		switch f.Status {
		case compat.AvailabilityLimited:
		case compat.AvailabilityNewly, compat.AvailabilityWidely:
			if f.LowYear <= 0 {
				return nil, fmt.Errorf("feature %s: %s feature needs low_year", f.ID, f.Status)
			}
		default:
			return nil, fmt.Errorf("feature %s: unknown status %q", f.ID, f.Status)
		}

		if f.Pattern == "" {
			return nil, fmt.Errorf("feature %s: empty pattern", f.ID)
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return nil, fmt.Errorf("feature %s: compile pattern: %w", f.ID, err)
		}
		if re.MatchString("") {
			return nil, fmt.Errorf("feature %s: pattern %q matches empty text", f.ID, f.Pattern)
		}
		f.re = re
	}

	return &ds, nil
}
