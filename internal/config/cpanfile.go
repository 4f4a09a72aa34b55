package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// cpanfileManifest is the narrow slice of a cpanfile.toml fragment this
// server understands: a project-local list of library directories, as
// recorded by `cpanm --local-lib` style layouts that keep their lib
// roots in TOML rather than the Perl cpanfile DSL. Load appends each
// directory's *.pm files to the scanner's include globs.
type cpanfileManifest struct {
	Paths struct {
		Lib []string `toml:"lib"`
	} `toml:"paths"`
}

// LoadCpanfileIncludes reads root/cpanfile.toml, if present, and
// returns its declared lib directories as include globs. A missing
// file is not an error.
func LoadCpanfileIncludes(root string) ([]string, error) {
	path := filepath.Join(root, "cpanfile.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var manifest cpanfileManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}

	globs := make([]string, 0, len(manifest.Paths.Lib))
	for _, lib := range manifest.Paths.Lib {
		globs = append(globs, filepath.ToSlash(filepath.Join(lib, "**", "*.pm")))
	}
	return globs, nil
}
