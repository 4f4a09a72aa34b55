package pathutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/standardbeagle/plsc/internal/types"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{
			name:     "simple relative path",
			absPath:  "/home/user/project/src/main.pl",
			rootDir:  "/home/user/project",
			expected: "src/main.pl",
		},
		{
			name:     "nested relative path",
			absPath:  "/home/user/project/lib/My/Module.pm",
			rootDir:  "/home/user/project",
			expected: "lib/My/Module.pm",
		},
		{
			name:     "root level file",
			absPath:  "/home/user/project/README.md",
			rootDir:  "/home/user/project",
			expected: "README.md",
		},
		{
			name:     "same directory",
			absPath:  "/home/user/project",
			rootDir:  "/home/user/project",
			expected: ".",
		},
		{
			name:     "already relative path",
			absPath:  "src/main.pl",
			rootDir:  "/home/user/project",
			expected: "src/main.pl",
		},
		{
			name:     "path outside root - fallback to absolute",
			absPath:  "/other/location/file.pl",
			rootDir:  "/home/user/project",
			expected: "/other/location/file.pl",
		},
		{
			name:     "empty root directory",
			absPath:  "/home/user/project/file.pl",
			rootDir:  "",
			expected: "/home/user/project/file.pl",
		},
		{
			name:     "empty absolute path",
			absPath:  "",
			rootDir:  "/home/user/project",
			expected: "",
		},
		{
			name:     "file scheme URI",
			absPath:  "file:///home/user/project/lib/Foo.pm",
			rootDir:  "/home/user/project",
			expected: "lib/Foo.pm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRelative(tt.absPath, tt.rootDir)

			if runtime.GOOS == "windows" {
				result = filepath.ToSlash(result)
				expected := filepath.ToSlash(tt.expected)
				if result != expected {
					t.Errorf("ToRelative() = %v, want %v", result, expected)
				}
			} else {
				if result != tt.expected {
					t.Errorf("ToRelative() = %v, want %v", result, tt.expected)
				}
			}
		})
	}
}

func TestToRelativeWorkspaceSymbols(t *testing.T) {
	rootDir := "/home/user/project"

	input := []types.WorkspaceSymbol{
		{
			Symbol: types.Symbol{Name: "foo", Kind: types.SymbolSubroutine},
			URI:    "/home/user/project/lib/Foo.pm",
		},
		{
			Symbol: types.Symbol{Name: "bar", Kind: types.SymbolScalarVar},
			URI:    "/home/user/project/lib/Nested/Bar.pm",
		},
		{
			Symbol: types.Symbol{Name: "baz", Kind: types.SymbolPackage},
			URI:    "/home/user/project/script.pl",
		},
	}

	results := ToRelativeWorkspaceSymbols(input, rootDir)

	expected := []string{
		"lib/Foo.pm",
		"lib/Nested/Bar.pm",
		"script.pl",
	}

	if len(results) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(results))
	}

	for i, result := range results {
		gotURI := result.URI
		wantURI := expected[i]
		if runtime.GOOS == "windows" {
			gotURI = filepath.ToSlash(gotURI)
			wantURI = filepath.ToSlash(wantURI)
		}

		if gotURI != wantURI {
			t.Errorf("Result %d: URI = %v, want %v", i, gotURI, wantURI)
		}

		if result.Symbol.Name != input[i].Symbol.Name {
			t.Errorf("Result %d: Name changed", i)
		}
		if result.Symbol.Kind != input[i].Symbol.Kind {
			t.Errorf("Result %d: Kind changed", i)
		}
	}

	// Original input must not be mutated.
	if input[0].URI != "/home/user/project/lib/Foo.pm" {
		t.Errorf("input slice was mutated: %v", input[0].URI)
	}
}

func TestToRelativeWorkspaceSymbolsEmptySlice(t *testing.T) {
	rootDir := "/home/user/project"

	empty := []types.WorkspaceSymbol{}
	result := ToRelativeWorkspaceSymbols(empty, rootDir)
	if len(result) != 0 {
		t.Errorf("Expected empty slice, got %d elements", len(result))
	}
}
