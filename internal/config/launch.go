package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/plsc/internal/errors"
)

// LaunchConfiguration describes a new Perl process to start under the
// debug adapter: the script to run, its arguments and environment, and
// the interpreter/include-path settings that control how @INC is built.
type LaunchConfiguration struct {
	Program         string
	Args            []string
	Cwd             string // empty means inherit the adapter's cwd
	Env             map[string]string
	InterpreterPath string // empty means "perl" on PATH
	IncludePaths    []string
}

// ResolvePaths rewrites every workspace-relative path in the
// configuration to an absolute path under workspaceRoot. Already
// absolute paths are left untouched.
func (c *LaunchConfiguration) ResolvePaths(workspaceRoot string) {
	if !filepath.IsAbs(c.Program) {
		c.Program = filepath.Join(workspaceRoot, c.Program)
	}
	if c.Cwd != "" && !filepath.IsAbs(c.Cwd) {
		c.Cwd = filepath.Join(workspaceRoot, c.Cwd)
	}
	for i, p := range c.IncludePaths {
		if !filepath.IsAbs(p) {
			c.IncludePaths[i] = filepath.Join(workspaceRoot, p)
		}
	}
}

// Validate checks that the program exists and is a regular file, that
// cwd (if set) exists and is a directory, and that the interpreter
// path (if set) exists and is a regular file.
func (c *LaunchConfiguration) Validate() error {
	if !fileExists(c.Program) {
		return errors.NewInvalidConfigurationError("program", c.Program,
			fmt.Errorf("program file does not exist"))
	}

	if c.Cwd != "" && !dirExists(c.Cwd) {
		return errors.NewInvalidConfigurationError("cwd", c.Cwd,
			fmt.Errorf("working directory does not exist or is not a directory"))
	}

	if c.InterpreterPath != "" && !fileExists(c.InterpreterPath) {
		return errors.NewInvalidConfigurationError("interpreter_path", c.InterpreterPath,
			fmt.Errorf("perl binary does not exist"))
	}

	return nil
}

// AttachConfiguration describes an already-running Perl process, started
// with a DAP-capable debugger module, to connect to over TCP.
type AttachConfiguration struct {
	Host      string
	Port      int
	TimeoutMs int // 0 means unset/no explicit timeout
}

// DefaultAttachConfiguration mirrors the defaults a host should offer
// before the user edits them.
func DefaultAttachConfiguration() AttachConfiguration {
	return AttachConfiguration{Host: "localhost", Port: 13603, TimeoutMs: 5000}
}

// Validate checks the host is non-empty after trimming, the port is in
// 1-65535, and the timeout (if set) is in 1-300000ms.
func (c *AttachConfiguration) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.NewInvalidConfigurationError("host", c.Host,
			fmt.Errorf("host cannot be empty"))
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.NewInvalidConfigurationError("port", fmt.Sprintf("%d", c.Port),
			fmt.Errorf("port must be in range 1-65535"))
	}

	if c.TimeoutMs != 0 {
		if c.TimeoutMs < 0 {
			return errors.NewInvalidConfigurationError("timeout_ms", fmt.Sprintf("%d", c.TimeoutMs),
				fmt.Errorf("timeout must be greater than 0 milliseconds"))
		}
		if c.TimeoutMs > 300_000 {
			return errors.NewInvalidConfigurationError("timeout_ms", fmt.Sprintf("%d", c.TimeoutMs),
				fmt.Errorf("timeout cannot exceed 300000 milliseconds (5 minutes)"))
		}
	}

	return nil
}
