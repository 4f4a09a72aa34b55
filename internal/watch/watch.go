// Package watch bridges fsnotify filesystem events into the workspace
// coordinator's notify_change/index_file/clear_file calls. A burst of
// saves (an editor writing a file, then its backup, then touching a
// sibling) collapses into one debounced batch before the coordinator
// sees anything.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/plsc/internal/debug"
	"github.com/standardbeagle/plsc/internal/workspace"
)

// defaultIncludeGlobs matches the same Perl extensions the workspace
// scanner treats as source by default.
var defaultIncludeGlobs = []string{"**/*.pl", "**/*.pm", "**/*.t", "**/*.psgi"}

// eventKind mirrors the fsnotify op that triggered a debounced entry,
// collapsed to the two outcomes the coordinator cares about.
type eventKind int

const (
	eventWrite eventKind = iota
	eventRemove
)

// Watcher recursively watches a workspace root and feeds file changes
// to a workspace.Coordinator, debounced so a burst of saves produces
// one coordinator update per file rather than one per fsnotify event.
type Watcher struct {
	fsw   *fsnotify.Watcher
	coord *workspace.Coordinator
	root  string

	includeGlobs []string
	excludeGlobs []string

	debounce time.Duration
	mu       sync.Mutex
	pending  map[string]eventKind
	timer    *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// Options configures a Watcher.
type Options struct {
	// DebounceMs is the quiet period after the last event for a path
	// before it is flushed to the coordinator. Defaults to 50ms.
	DebounceMs int
	// IncludeGlobs overrides the workspace package's default Perl
	// extension globs when non-empty.
	IncludeGlobs []string
	ExcludeGlobs []string
}

// New starts watching root recursively and returns a Watcher whose
// Close stops it. Every directory under root is registered with
// fsnotify up front; directories created later are picked up as they
// arrive.
func New(coord *workspace.Coordinator, root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceMs := opts.DebounceMs
	if debounceMs <= 0 {
		debounceMs = 50
	}

	w := &Watcher{
		fsw:          fsw,
		coord:        coord,
		root:         root,
		includeGlobs: opts.IncludeGlobs,
		excludeGlobs: opts.ExcludeGlobs,
		debounce:     time.Duration(debounceMs) * time.Millisecond,
		pending:      make(map[string]eventKind),
		done:         make(chan struct{}),
	}

	if err := w.addWatches(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Close stops the watcher and releases its fsnotify handle. Events
// still pending in the debounce window are dropped rather than
// flushed.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		if matchesAny(w.excludeGlobs, w.relPath(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			debug.LogWatch("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.LogWatch("fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	info, statErr := os.Stat(event.Name)
	if statErr != nil {
		if event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0 {
			w.scheduleFlush(event.Name, eventRemove)
		}
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !matchesAny(w.excludeGlobs, w.relPath(event.Name)) {
			if err := w.fsw.Add(event.Name); err != nil {
				debug.LogWatch("failed to watch new directory %s: %v", event.Name, err)
			}
		}
		return
	}

	if !w.matchesInclude(event.Name) {
		return
	}
	if matchesAny(w.excludeGlobs, w.relPath(event.Name)) {
		return
	}

	switch {
	case event.Op&fsnotify.Remove != 0:
		w.scheduleFlush(event.Name, eventRemove)
	case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
		w.scheduleFlush(event.Name, eventWrite)
	}
}

func (w *Watcher) matchesInclude(path string) bool {
	globs := w.includeGlobs
	if len(globs) == 0 {
		globs = defaultIncludeGlobs
	}
	return matchesAny(globs, w.relPath(path))
}

func (w *Watcher) scheduleFlush(path string, kind eventKind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = kind
	uri := "file://" + filepath.ToSlash(path)
	w.coord.NotifyChange(uri)

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = make(map[string]eventKind)
	w.mu.Unlock()

	for path, kind := range events {
		uri := "file://" + filepath.ToSlash(path)
		switch kind {
		case eventRemove:
			w.coord.ClearFile(uri)
			w.coord.NotifyParseComplete(uri)
		case eventWrite:
			text, err := os.ReadFile(path)
			if err != nil {
				debug.LogWatch("failed to read %s after change event: %v", path, err)
				w.coord.NotifyParseComplete(uri)
				continue
			}
			w.coord.IndexFile(uri, string(text))
		}
	}
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
