// Package scanner runs the compatibility analyzer over every discovered file
// and folds the outcomes into scan totals.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/baselinespectre/internal/aggregate"
	"github.com/ppiankov/baselinespectre/internal/compat"
	"github.com/ppiankov/baselinespectre/internal/engine"
)

// FileDiscoverer expands glob patterns into file paths.
type FileDiscoverer interface {
	Discover(patterns []string) ([]string, error)
}

// Progress reports one analyzed file to callers.
type Progress struct {
	File      string
	Done      int
	Total     int
	Outcome   aggregate.OutcomeKind
	Timestamp time.Time
}

// Scanner drives the analyzer over discovered files.
type Scanner struct {
	analyzer   engine.Analyzer
	discoverer FileDiscoverer
	workers    int
	readFile   func(string) ([]byte, error) // injectable for testing
}

// NewScanner creates a scanner analyzing up to workers files at once.
// A non-positive worker count uses the number of CPUs.
func NewScanner(analyzer engine.Analyzer, discoverer FileDiscoverer, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		analyzer:   analyzer,
		discoverer: discoverer,
		workers:    workers,
		readFile:   os.ReadFile,
	}
}

// ValidateOptions checks the structural preconditions of a scan.
func ValidateOptions(opts compat.ScanOptions) error {
	if opts.BaselineYear < compat.MinBaselineYear {
		return fmt.Errorf("%w: %d (minimum %d)", compat.ErrInvalidBaselineYear, opts.BaselineYear, compat.MinBaselineYear)
	}
	return nil
}

// Scan discovers files matching opts.Patterns and analyzes each of them.
// Files that fail analysis are counted as scanned and otherwise skipped; only
// discovery, precondition and data loading errors fail the scan. progress may
// be nil.
func (s *Scanner) Scan(ctx context.Context, opts compat.ScanOptions, progress func(Progress)) (*compat.ScanResults, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	policy := compat.PolicyFromOptions(opts)

	files, err := s.discoverer.Discover(opts.Patterns)
	if err != nil {
		return nil, err
	}

	if err := s.analyzer.EnsureDataLoaded(ctx); err != nil {
		return nil, fmt.Errorf("load feature data: %w", err)
	}
	slog.Debug("Scanning files", "count", len(files), "year", policy.Year, "workers", s.workers)

	outcomes := s.analyzeAll(ctx, files, policy, progress)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	results := aggregate.Reduce(outcomes)
	return &results, nil
}

// analyzeAll returns one outcome per file, in file order.
func (s *Scanner) analyzeAll(ctx context.Context, files []string, policy compat.Policy, progress func(Progress)) []aggregate.Outcome {
	outcomes := make([]aggregate.Outcome, len(files))

	var (
		mu   sync.Mutex
		done int
	)
	report := func(o aggregate.Outcome) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		progress(Progress{
			File:      o.File,
			Done:      done,
			Total:     len(files),
			Outcome:   o.Kind,
			Timestamp: time.Now(),
		})
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			outcomes[i] = s.analyzeFile(ctx, file, policy)
			report(outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *Scanner) analyzeFile(ctx context.Context, file string, policy compat.Policy) aggregate.Outcome {
	src, err := s.readFile(file)
	if err != nil {
		return s.failed(file, err)
	}

	result, err := s.analyzer.AnalyzeFile(ctx, file, src, policy)
	if err != nil {
		return s.failed(file, err)
	}
	if result == nil {
		return s.failed(file, errors.New("analyzer returned no result"))
	}
	if result.File == "" {
		result.File = file
	}
	return aggregate.Succeeded(file, result)
}

func (s *Scanner) failed(file string, err error) aggregate.Outcome {
	slog.Debug("Skipping file", "file", file, "error", err)
	return aggregate.Failed(file, &compat.AnalysisFailure{File: file, Err: err})
}
