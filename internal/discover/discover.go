// Package discover expands glob patterns into the list of files to scan.
package discover

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ppiankov/baselinespectre/internal/compat"
)

// DefaultIgnore lists globs that are never scanned, regardless of caller input.
var DefaultIgnore = []string{
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/.git/**",
	"**/*.min.js",
	"**/*.min.css",
}

// Discoverer finds candidate files for a scan.
type Discoverer struct {
	root      string
	exclude   []string
	gitignore bool
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithExclude adds ignore globs on top of DefaultIgnore.
func WithExclude(patterns ...string) Option {
	return func(d *Discoverer) {
		d.exclude = append(d.exclude, patterns...)
	}
}

// WithoutGitignore disables .gitignore handling.
func WithoutGitignore() Option {
	return func(d *Discoverer) {
		d.gitignore = false
	}
}

// New creates a Discoverer resolving relative patterns against root.
func New(root string, opts ...Option) *Discoverer {
	if root == "" {
		root = "."
	}
	d := &Discoverer{
		root:      root,
		exclude:   append([]string(nil), DefaultIgnore...),
		gitignore: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover expands patterns into a deduplicated list of file paths, in
// pattern order. A pattern that matches nothing is not an error.
func (d *Discoverer) Discover(patterns []string) ([]string, error) {
	for _, ex := range d.exclude {
		if !doublestar.ValidatePattern(filepath.ToSlash(ex)) {
			return nil, &compat.DiscoveryError{Pattern: ex, Err: doublestar.ErrBadPattern}
		}
	}

	absRoot, err := filepath.Abs(d.root)
	if err != nil {
		return nil, &compat.DiscoveryError{Pattern: d.root, Err: err}
	}

	cache := newGitignoreCache()
	seen := make(map[string]bool)
	files := []string{}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		base, matches, err := d.expand(pattern)
		if err != nil {
			return nil, err
		}

		for _, path := range matches {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, &compat.DiscoveryError{Pattern: pattern, Err: err}
			}
			if seen[abs] {
				continue
			}
			if d.excluded(absRoot, abs, path) {
				continue
			}
			if d.gitignore && cache.ignored(abs, stopDir(absRoot, abs, base)) {
				slog.Debug("Skipping gitignored file", "file", path)
				continue
			}
			seen[abs] = true
			files = append(files, path)
		}
	}

	slog.Debug("Discovered files", "patterns", len(patterns), "count", len(files))
	return files, nil
}

// expand globs a single pattern and returns the absolute base directory of
// the glob plus the matched paths.
func (d *Discoverer) expand(pattern string) (string, []string, error) {
	slashed := filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(slashed) {
		return "", nil, &compat.DiscoveryError{Pattern: pattern, Err: doublestar.ErrBadPattern}
	}

	base, rest := doublestar.SplitPattern(slashed)
	dir := filepath.FromSlash(base)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(d.root, dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, &compat.DiscoveryError{Pattern: pattern, Err: err}
	}
	if !info.IsDir() {
		return "", nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), rest, doublestar.WithFilesOnly())
	if err != nil {
		return "", nil, &compat.DiscoveryError{Pattern: pattern, Err: err}
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, &compat.DiscoveryError{Pattern: pattern, Err: err}
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return absDir, paths, nil
}

// excluded applies the ignore globs to the path relative to the root, or to
// the path as discovered when it lies outside the root.
func (d *Discoverer) excluded(absRoot, abs, path string) bool {
	candidate := filepath.ToSlash(path)
	if rel, ok := within(absRoot, abs); ok {
		candidate = filepath.ToSlash(rel)
	}
	candidate = strings.TrimPrefix(candidate, "/")

	for _, pattern := range d.exclude {
		if ok, _ := doublestar.Match(filepath.ToSlash(pattern), candidate); ok {
			return true
		}
	}
	return false
}

// stopDir is the highest directory whose .gitignore applies to abs.
func stopDir(absRoot, abs, base string) string {
	if _, ok := within(absRoot, abs); ok {
		return absRoot
	}
	return base
}

func within(dir, path string) (string, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// gitignoreCache loads each directory's .gitignore at most once.
type gitignoreCache struct {
	dirs map[string]*ignore.GitIgnore
}

func newGitignoreCache() *gitignoreCache {
	return &gitignoreCache{dirs: make(map[string]*ignore.GitIgnore)}
}

func (c *gitignoreCache) load(dir string) *ignore.GitIgnore {
	if gi, ok := c.dirs[dir]; ok {
		return gi
	}
	var gi *ignore.GitIgnore
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		compiled, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			slog.Warn("Failed to parse .gitignore", "path", path, "error", err)
		} else {
			gi = compiled
		}
	}
	c.dirs[dir] = gi
	return gi
}

// ignored reports whether any .gitignore from abs's directory up to stop
// excludes abs.
func (c *gitignoreCache) ignored(abs, stop string) bool {
	dir := filepath.Dir(abs)
	for {
		if gi := c.load(dir); gi != nil {
			if rel, ok := within(dir, abs); ok && gi.MatchesPath(filepath.ToSlash(rel)) {
				return true
			}
		}
		if dir == stop || stop == "" {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}
