// Package engine implements the compatibility analyzer consulted for each
// scanned file.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/ppiankov/baselinespectre/internal/compat"
)

// Rule identifiers emitted by the builtin engine.
const (
	RuleLimitedAvailability = "baseline/limited-availability"
	RuleNewlyAvailable      = "baseline/newly-available"
	RuleAboveTargetYear     = "baseline/above-target-year"
)

const maxSourceLen = 120

var (
	// ErrDataNotLoaded is returned by AnalyzeFile before EnsureDataLoaded succeeded.
	ErrDataNotLoaded = errors.New("feature data not loaded")
	// ErrUnsupportedLanguage is returned for files with an unknown extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnparseable is returned for content that is not UTF-8 source text.
	ErrUnparseable = errors.New("unparseable source")
)

// Analyzer is the compatibility rule engine boundary. EnsureDataLoaded must
// succeed once before AnalyzeFile is called; AnalyzeFile is then safe for
// concurrent use and must not modify the policy.
type Analyzer interface {
	EnsureDataLoaded(ctx context.Context) error
	AnalyzeFile(ctx context.Context, file string, source []byte, policy compat.Policy) (*compat.AnalysisResult, error)
}

// Engine is the builtin Analyzer backed by a YAML feature catalog.
type Engine struct {
	load    func() ([]byte, error)
	once    sync.Once
	loadErr error
	data    atomic.Pointer[Dataset]
}

// Option configures an Engine.
type Option func(*Engine)

// WithFeaturesFile loads the catalog from a file instead of the embedded one.
func WithFeaturesFile(path string) Option {
	return func(e *Engine) {
		e.load = func() ([]byte, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read features file %s: %w", path, err)
			}
			return data, nil
		}
	}
}

// WithDataset uses raw YAML as the catalog.
func WithDataset(raw []byte) Option {
	return func(e *Engine) {
		e.load = func() ([]byte, error) { return raw, nil }
	}
}

// New creates an Engine. The embedded catalog is used unless an option
// overrides it.
func New(opts ...Option) *Engine {
	e := &Engine{
		load: func() ([]byte, error) { return defaultDataset, nil },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnsureDataLoaded loads the feature catalog. Only the first call does work;
// later calls return the first result.
func (e *Engine) EnsureDataLoaded(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.once.Do(func() {
		raw, err := e.load()
		if err != nil {
			e.loadErr = err
			return
		}
		ds, err := ParseDataset(raw)
		if err != nil {
			e.loadErr = err
			return
		}
		e.data.Store(ds)
		slog.Debug("Loaded feature dataset", "features", len(ds.Features))
	})
	return e.loadErr
}

// AnalyzeFile detects tracked features in source and classifies them
// against policy.
func (e *Engine) AnalyzeFile(ctx context.Context, file string, source []byte, policy compat.Policy) (*compat.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := e.data.Load()
	if ds == nil {
		return nil, ErrDataNotLoaded
	}

	lang, err := DetectLanguage(file)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(source) || bytes.IndexByte(source, 0) >= 0 {
		return nil, fmt.Errorf("%w: not UTF-8 text", ErrUnparseable)
	}

	result := &compat.AnalysisResult{
		File:        file,
		Language:    lang,
		Features:    []compat.Feature{},
		Violations:  []compat.Violation{},
		Suggestions: []compat.Suggestion{},
	}

	lines := strings.Split(string(source), "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		for fi := range ds.Features {
			def := &ds.Features[fi]
			if !def.appliesTo(lang) {
				continue
			}
			for _, loc := range def.re.FindAllStringIndex(line, -1) {
				feature := compat.Feature{
					Feature:  def.ID,
					Category: def.Category,
					Line:     i + 1,
					Column:   utf8.RuneCountInString(line[:loc[0]]) + 1,
					Source:   snippet(line),
				}
				result.Features = append(result.Features, feature)
				countAvailability(&result.Metrics, def.Status)

				v, ok := classify(def, feature, policy)
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, v)
				if def.Alternative != "" {
					result.Suggestions = append(result.Suggestions, compat.Suggestion{
						Feature:     def.ID,
						Line:        feature.Line,
						Message:     fmt.Sprintf("Consider an alternative to %s", def.Name),
						Alternative: def.Alternative,
					})
				}
			}
		}
	}

	result.Metrics.TotalFeatures = len(result.Features)
	result.Metrics.CompatibilityScore = score(result.Metrics)
	return result, nil
}

// classify reports the violation for a detected feature, if the policy
// rejects it.
func classify(def *FeatureDef, feature compat.Feature, policy compat.Policy) (compat.Violation, bool) {
	v := compat.Violation{
		Feature: feature,
		BaselineInfo: &compat.BaselineInfo{
			MDNURL:   def.MDNURL,
			Status:   def.Status,
			LowYear:  def.LowYear,
			HighYear: def.HighYear,
		},
	}

	switch def.Status {
	case compat.AvailabilityLimited:
		if policy.AllowLimited {
			return compat.Violation{}, false
		}
		v.RuleID = RuleLimitedAvailability
		v.Severity = compat.SeverityError
		v.Message = fmt.Sprintf("%s has limited availability and is not part of Baseline", def.Name)
	case compat.AvailabilityNewly:
		if def.LowYear <= policy.Year || policy.AllowNewly {
			return compat.Violation{}, false
		}
		v.RuleID = RuleNewlyAvailable
		v.Severity = compat.SeverityWarning
		v.Message = fmt.Sprintf("%s is newly available since %d, after baseline year %d", def.Name, def.LowYear, policy.Year)
	default:
		if def.LowYear <= policy.Year {
			return compat.Violation{}, false
		}
		v.RuleID = RuleAboveTargetYear
		v.Severity = compat.SeverityWarning
		v.Message = fmt.Sprintf("%s became Baseline in %d, after baseline year %d", def.Name, def.LowYear, policy.Year)
	}
	return v, true
}

func countAvailability(m *compat.Metrics, status compat.Availability) {
	switch status {
	case compat.AvailabilityWidely:
		m.WidelyAvailable++
	case compat.AvailabilityNewly:
		m.NewlyAvailable++
	default:
		m.LimitedSupport++
	}
}

// score weights newly available features at half of widely available ones.
func score(m compat.Metrics) float64 {
	if m.TotalFeatures == 0 {
		return 100
	}
	weighted := float64(m.WidelyAvailable) + float64(m.NewlyAvailable)/2
	return math.Round(100 * weighted / float64(m.TotalFeatures))
}

func snippet(line string) string {
	s := strings.TrimSpace(line)
	if utf8.RuneCountInString(s) <= maxSourceLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxSourceLen])
}

// DetectLanguage maps a file extension to a source language.
func DetectLanguage(file string) (compat.Language, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return compat.LanguageJavaScript, nil
	case ".ts", ".mts", ".cts", ".tsx":
		return compat.LanguageTypeScript, nil
	case ".css", ".scss", ".less":
		return compat.LanguageCSS, nil
	case ".html", ".htm":
		return compat.LanguageHTML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filepath.Ext(file))
	}
}
