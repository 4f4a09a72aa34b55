// Package pathutil provides utilities for converting between absolute and
// relative paths.
//
// Architecture Pattern:
// The workspace coordinator and document store key everything by URI, which
// is typically an absolute filesystem path. User-facing output (CLI, tests)
// should use relative paths for readability and portability. This package
// provides the conversion layer between internal (absolute) and external
// (relative) representations.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/plsc/internal/types"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.pl", "/home/user/project") → "src/main.pl"
//   - ToRelative("/other/location/file.pl", "/home/user/project") → "/other/location/file.pl" (outside root)
//   - ToRelative("src/main.pl", "/home/user/project") → "src/main.pl" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	// Document URIs carry a file:// scheme over the absolute path; the
	// relative form drops the scheme along with the root prefix.
	absPath = strings.TrimPrefix(absPath, "file://")

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// A relative path starting with ".." means the file is outside the root;
	// the absolute path is clearer in that case.
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToRelativeWorkspaceSymbols converts the URI field of every WorkspaceSymbol
// from absolute to relative, without mutating the input slice. This is used
// at output boundaries - CLI `find_symbols` results and JSON serialization -
// where absolute URIs are noisy but the index itself must keep using them for
// uniqueness.
func ToRelativeWorkspaceSymbols(results []types.WorkspaceSymbol, rootDir string) []types.WorkspaceSymbol {
	if len(results) == 0 {
		return results
	}

	converted := make([]types.WorkspaceSymbol, len(results))
	copy(converted, results)
	for i := range converted {
		converted[i].URI = ToRelative(converted[i].URI, rootDir)
	}
	return converted
}
