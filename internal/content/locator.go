package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lucasnoah/scapagent/internal/fileutil"
)

// ErrNotFound means no usable datastream exists locally or via fetch.
var ErrNotFound = errors.New("scap content not found")

// Reference identifies the datastream chosen for a scan.
type Reference struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Fetcher populates dest with extracted benchmark content. dest must not
// exist when Fetch returns an error.
type Fetcher interface {
	Fetch(ctx context.Context, dest string) error
}

// Options configures a Locator.
type Options struct {
	// Roots are searched in order; the configured content directory first.
	Roots []string
	// CacheDir receives fetched content.
	CacheDir      string
	Glob          string
	OSReleasePath string
	DefaultName   string
	// Fetcher is nil when network fetch is disabled.
	Fetcher Fetcher
}

// Locator resolves datastream names to files.
type Locator struct {
	opts  Options
	log   *zap.Logger
	fetch singleflight.Group
}

// NewLocator creates a Locator.
func NewLocator(opts Options, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{opts: opts, log: log.Named("content")}
}

// Resolve returns the datastream to scan. An empty name is replaced with
// DefaultName. An absolute path is used as-is when it exists. Fetch
// failures are logged and reported as ErrNotFound.
func (l *Locator) Resolve(ctx context.Context, name string) (*Reference, error) {
	if name == "" {
		name = l.DefaultName()
	}

	if filepath.IsAbs(name) {
		if fileutil.IsRegularFile(name) {
			return newReference(name), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !IsFileName(name) {
		return nil, fmt.Errorf("%w: %s is not a file name", ErrNotFound, name)
	}

	if ref := l.search(name); ref != nil {
		l.log.Info("found datastream", zap.String("path", ref.Path))
		return ref, nil
	}

	if l.opts.Fetcher == nil || l.opts.CacheDir == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	l.log.Info("datastream not found locally, fetching content", zap.String("datastream", name))
	if err := l.ensureCache(ctx); err != nil {
		l.log.Warn("content fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s: fetch: %v", ErrNotFound, name, err)
	}

	if p := filepath.Join(l.opts.CacheDir, name); fileutil.IsRegularFile(p) {
		l.log.Info("found fetched datastream", zap.String("path", p))
		return newReference(p), nil
	}
	if p := l.firstMatch(l.opts.CacheDir); p != "" {
		l.log.Info("using alternative datastream", zap.String("path", p), zap.String("requested", name))
		return newReference(p), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// DefaultName derives the datastream name from the host's os-release file.
// Unknown or unreadable: the first glob match across the roots, else the
// configured default.
func (l *Locator) DefaultName() string {
	data, err := os.ReadFile(l.opts.OSReleasePath)
	if err != nil {
		l.log.Warn("failed to detect OS", zap.String("path", l.opts.OSReleasePath), zap.Error(err))
	} else if name, ok := DetectDatastream(string(data)); ok {
		return name
	}

	for _, root := range l.opts.Roots {
		if p := l.firstMatch(root); p != "" {
			return filepath.Base(p)
		}
	}
	return l.opts.DefaultName
}

// Available lists every datastream matching the glob across all roots.
func (l *Locator) Available() []Reference {
	var refs []Reference
	seen := make(map[string]bool)
	for _, root := range l.opts.Roots {
		matches, err := filepath.Glob(filepath.Join(root, l.opts.Glob))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if seen[m] || !fileutil.IsRegularFile(m) {
				continue
			}
			seen[m] = true
			refs = append(refs, *newReference(m))
		}
	}
	return refs
}

// IsFileName reports whether name is a bare file name with no directory part.
func IsFileName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && filepath.IsLocal(name)
}

func (l *Locator) search(name string) *Reference {
	for _, root := range l.opts.Roots {
		p := filepath.Join(root, name)
		if fileutil.IsRegularFile(p) {
			return newReference(p)
		}
	}
	return nil
}

// firstMatch returns the lexically first regular file in dir matching the glob.
func (l *Locator) firstMatch(dir string) string {
	if l.opts.Glob == "" {
		return ""
	}
	matches, err := filepath.Glob(filepath.Join(dir, l.opts.Glob))
	if err != nil {
		return ""
	}
	for _, m := range matches {
		if fileutil.IsRegularFile(m) {
			return m
		}
	}
	return ""
}

// ensureCache fetches into CacheDir unless it already exists. Concurrent
// callers share a single fetch.
func (l *Locator) ensureCache(ctx context.Context) error {
	if fileutil.IsDir(l.opts.CacheDir) {
		return nil
	}
	_, err, _ := l.fetch.Do(l.opts.CacheDir, func() (any, error) {
		if fileutil.IsDir(l.opts.CacheDir) {
			return nil, nil
		}
		return nil, l.opts.Fetcher.Fetch(ctx, l.opts.CacheDir)
	})
	return err
}

func newReference(path string) *Reference {
	return &Reference{Path: path, Name: filepath.Base(path)}
}
