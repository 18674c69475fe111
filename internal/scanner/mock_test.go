package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ppiankov/baselinespectre/internal/compat"
)

// mockAnalyzer implements engine.Analyzer for testing.
type mockAnalyzer struct {
	mu       sync.Mutex
	results  map[string]*compat.AnalysisResult
	errs     map[string]error
	loadErr  error
	loads    int
	policies []compat.Policy
}

func newMockAnalyzer() *mockAnalyzer {
	return &mockAnalyzer{
		results: make(map[string]*compat.AnalysisResult),
		errs:    make(map[string]error),
	}
}

func (m *mockAnalyzer) EnsureDataLoaded(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.loadErr
}

func (m *mockAnalyzer) AnalyzeFile(_ context.Context, file string, _ []byte, policy compat.Policy) (*compat.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies = append(m.policies, policy)
	if err, ok := m.errs[file]; ok {
		return nil, err
	}
	if res, ok := m.results[file]; ok {
		cp := *res
		return &cp, nil
	}
	return &compat.AnalysisResult{File: file, Language: compat.LanguageJavaScript}, nil
}

// mockDiscoverer implements FileDiscoverer for testing.
type mockDiscoverer struct {
	files []string
	err   error
}

func (m *mockDiscoverer) Discover(_ []string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.files, nil
}

func fakeReadFile(missing ...string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		for _, p := range missing {
			if p == path {
				return nil, fmt.Errorf("open %s: %w", path, errors.New("no such file"))
			}
		}
		return []byte("// " + path), nil
	}
}

func makeResult(file string, sevs ...compat.Severity) *compat.AnalysisResult {
	res := &compat.AnalysisResult{File: file, Language: compat.LanguageJavaScript}
	for i, sev := range sevs {
		res.Violations = append(res.Violations, compat.Violation{
			RuleID:   "baseline/test",
			Severity: sev,
			Message:  fmt.Sprintf("violation %d", i+1),
			Feature:  compat.Feature{Feature: "test-api", Category: compat.CategoryAPI, Line: i + 1, Column: 1},
		})
	}
	return res
}
