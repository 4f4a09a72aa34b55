package workspace

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/plsc/internal/config"
	"github.com/standardbeagle/plsc/internal/debug"
	"github.com/standardbeagle/plsc/internal/security"
)

// defaultIncludeGlobs matches Perl scripts, modules, test files, and PSGI
// entry points. .pod files, which the content validator also accepts as
// Perl, are not scanned by default.
var defaultIncludeGlobs = []string{"**/*.pl", "**/*.pm", "**/*.t", "**/*.psgi"}

// defaultExcludeGlobs skips the directories every workspace scan wants
// to stay out of regardless of .gitignore: VCS metadata and the two
// package managers Perl projects actually use.
var defaultExcludeGlobs = []string{
	"**/.git/**", "**/blib/**", "**/local/**", "**/_build/**", "**/.build/**",
}

// ScanOptions configures a workspace directory scan.
type ScanOptions struct {
	// Root is the workspace root to walk.
	Root string
	// IncludeGlobs overrides defaultIncludeGlobs when non-empty.
	IncludeGlobs []string
	// ExcludeGlobs are merged with defaultExcludeGlobs and any patterns
	// the root's .gitignore contributes.
	ExcludeGlobs []string
	// RespectGitignore loads Root/.gitignore and excludes whatever it
	// matches, in addition to ExcludeGlobs.
	RespectGitignore bool
	// ValidationThresholdKB is passed to security.NewFileValidator; files
	// at or below this size skip content validation entirely.
	ValidationThresholdKB int64
	// Workers bounds how many files are read and indexed concurrently.
	// 0 means one worker per CPU.
	Workers int
}

// ScanResult summarizes one completed directory scan.
type ScanResult struct {
	FilesIndexed int
	FilesSkipped int
	Errors       []error
}

// Scan walks opts.Root, matching files against the configured include
// globs and rejecting anything excluded by ExcludeGlobs, .gitignore, or
// the content validator, then hands each surviving file's text to
// c.IndexFile on a bounded worker pool. Each candidate is announced via
// NotifyChange before its worker runs, so the coordinator's pending set
// stays a superset of in-flight work for the whole scan. Scan blocks
// until every worker drains; it does not itself transition the
// coordinator to Ready - the caller does that once satisfied the scan
// reached quiescence.
func (c *Coordinator) Scan(ctx context.Context, opts ScanOptions) (ScanResult, error) {
	includes := opts.IncludeGlobs
	if len(includes) == 0 {
		includes = defaultIncludeGlobs
	}
	excludes := append(append([]string{}, defaultExcludeGlobs...), opts.ExcludeGlobs...)

	var gitignore *config.GitignoreParser
	if opts.RespectGitignore {
		gitignore = config.NewGitignoreParser()
		if err := gitignore.LoadGitignore(opts.Root); err != nil {
			debug.LogWorkspace("gitignore load failed for %s: %v", opts.Root, err)
		}
	}

	validator := security.NewFileValidator(opts.ValidationThresholdKB)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	var result ScanResult
	walkErr := filepath.WalkDir(opts.Root, func(path string, d os.DirEntry, err error) error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
		}
		if err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, err)
			mu.Unlock()
			return nil
		}
		if path == opts.Root {
			return nil
		}

		rel, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matchesAny(excludes, rel) || matchesAny(excludes, rel+"/") {
				return filepath.SkipDir
			}
			if gitignore != nil && gitignore.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(excludes, rel) {
			mu.Lock()
			result.FilesSkipped++
			mu.Unlock()
			return nil
		}
		if gitignore != nil && gitignore.ShouldIgnore(rel, false) {
			mu.Lock()
			result.FilesSkipped++
			mu.Unlock()
			return nil
		}
		if !matchesAny(includes, rel) {
			mu.Lock()
			result.FilesSkipped++
			mu.Unlock()
			return nil
		}

		uri := "file://" + filepath.ToSlash(path)
		c.NotifyChange(uri)
		g.Go(func() error {
			if err := validator.ValidateLargeFile(path); err != nil {
				debug.LogWorkspace("rejecting %s: %v", path, err)
				mu.Lock()
				result.FilesSkipped++
				mu.Unlock()
				c.NotifyParseComplete(uri)
				return nil
			}

			text, readErr := os.ReadFile(path)
			if readErr != nil {
				mu.Lock()
				result.Errors = append(result.Errors, readErr)
				mu.Unlock()
				c.NotifyParseComplete(uri)
				return nil
			}

			c.IndexFile(uri, string(text))
			mu.Lock()
			result.FilesIndexed++
			mu.Unlock()
			return nil
		})
		return nil
	})

	gErr := g.Wait()
	if walkErr != nil && walkErr != context.Canceled {
		return result, walkErr
	}
	if gErr != nil && gErr != context.Canceled {
		return result, gErr
	}
	return result, nil
}

// matchesAny reports whether path matches any of the given doublestar
// glob patterns.
func matchesAny(globs []string, path string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}
