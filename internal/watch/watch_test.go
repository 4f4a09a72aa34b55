package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/plsc/internal/types"
	"github.com/standardbeagle/plsc/internal/workspace"
)

func TestWatcherIndexesNewFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test in short mode")
	}

	root := t.TempDir()
	coord := workspace.New()

	w, err := New(coord, root, Options{DebounceMs: 50})
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(root, "script.pl")
	require.NoError(t, os.WriteFile(path, []byte("#!/usr/bin/perl\nuse strict;\nsub greet { return 'hi'; }\n"), 0644))

	uri := "file://" + filepath.ToSlash(path)
	require.Eventually(t, func() bool {
		syms := coord.FindSymbols("greet")
		for _, s := range syms {
			if s.URI == uri {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond, "watcher should index the new file")
}

func TestWatcherClearsRemovedFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test in short mode")
	}

	root := t.TempDir()
	path := filepath.Join(root, "mod.pm")
	require.NoError(t, os.WriteFile(path, []byte("package Mod;\nsub run {}\n1;\n"), 0644))

	coord := workspace.New()
	uri := "file://" + filepath.ToSlash(path)
	text, err := os.ReadFile(path)
	require.NoError(t, err)
	coord.IndexFile(uri, string(text))
	require.NotEmpty(t, coord.FindSymbols("run"))

	w, err := New(coord, root, Options{DebounceMs: 50})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		return len(coord.FindSymbols("run")) == 0
	}, 2*time.Second, 20*time.Millisecond, "watcher should clear the removed file")
}

func TestWatcherIgnoresNonPerlFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test in short mode")
	}

	root := t.TempDir()
	coord := workspace.New()

	w, err := New(coord, root, Options{DebounceMs: 50})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("not perl"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, types.IndexUninitialized, coord.State().Kind)
}
