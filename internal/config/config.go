package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the scanner/watcher-facing project configuration: glob
// patterns plus the performance knobs that bound a workspace scan.
type Config struct {
	Project     Project
	Index       Index
	Performance Performance
	Include     []string
	Exclude     []string
}

// Project names the workspace root the configuration applies to.
type Project struct {
	Root string
	Name string
}

// Index controls the scanner's file selection and filtering.
type Index struct {
	MaxFileSize           int64
	RespectGitignore      bool
	WatchMode             bool
	WatchDebounceMs       int
	ValidationThresholdKB int64
}

// Performance bounds the worker pool used for parse-storm accounting
// during a bulk directory scan (internal/workspace, internal/incremental).
type Performance struct {
	ParallelFileWorkers int // 0 = auto-detect (runtime.NumCPU)
	IndexingTimeoutSec  int
}

// Default returns the configuration a host gets when no .plsc.kdl is
// present: every *.pl/*.pm/*.t/*.psgi file under root, gitignore
// respected, a 120-second indexing timeout.
func Default(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Index: Index{
			MaxFileSize:           10 * 1024 * 1024,
			RespectGitignore:      true,
			WatchMode:             false,
			WatchDebounceMs:       50,
			ValidationThresholdKB: 256,
		},
		Performance: Performance{
			ParallelFileWorkers: 0,
			IndexingTimeoutSec:  120,
		},
		Include: []string{"**/*.pl", "**/*.pm", "**/*.t", "**/*.psgi"},
		Exclude: []string{"**/.git/**", "**/blib/**", "**/local/**"},
	}
}

// Load resolves a project's configuration: it starts from Default,
// applies .plsc.kdl if present, and finally seeds Include with any
// paths a cpanfile.toml fragment names, without overriding an explicit
// .plsc.kdl include list.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	kdlCfg, err := LoadKDL(root)
	if err != nil {
		return nil, fmt.Errorf("loading .plsc.kdl: %w", err)
	}
	if kdlCfg != nil {
		cfg = kdlCfg
	}

	extraIncludes, err := LoadCpanfileIncludes(root)
	if err != nil {
		return nil, fmt.Errorf("loading cpanfile.toml: %w", err)
	}
	cfg.Include = append(cfg.Include, extraIncludes...)

	return cfg, nil
}

// resolveAbsolute resolves rel against base if rel isn't already
// absolute, cleaning the result.
func resolveAbsolute(base, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Clean(filepath.Join(base, rel))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
