// Command plsc is a thin host harness for exercising the Perl language
// server core directly from a terminal: parse a file and dump its tree,
// extract symbols, scan or watch a workspace, or print the capability
// manifest a host would advertise. It is not a JSON-RPC or DAP
// transport — see internal/capabilities and internal/config for the
// pieces a real host wires those onto.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/plsc/internal/debug"
	"github.com/standardbeagle/plsc/internal/version"
)

// exitCode lets a command report a specific process exit status without
// main() string-matching error messages, mirroring the exit-code
// contract every entrypoint shares: 0 success, 1 unhandled failure, 2
// invalid arguments, 64 malformed protocol input.
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string { return e.err.Error() }
func (e *exitCode) Unwrap() error { return e.err }

const (
	exitUnhandled     = 1
	exitInvalidArgs   = 2
	exitFramingError  = 64
)

func usageError(format string, args ...interface{}) error {
	return &exitCode{code: exitInvalidArgs, err: fmt.Errorf(format, args...)}
}

func main() {
	app := &cli.App{
		Name:                   "plsc",
		Usage:                  "Perl language server core - parse, index, and inspect Perl sources",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				os.Setenv("DEBUG", "1")
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			parseCommand,
			symbolsCommand,
			indexCommand,
			watchCommand,
			capabilitiesCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "plsc: %v\n", err)
		var ec *exitCode
		if ok := asExitCode(err, &ec); ok {
			os.Exit(ec.code)
		}
		os.Exit(exitUnhandled)
	}
}

func asExitCode(err error, target **exitCode) bool {
	if ec, ok := err.(*exitCode); ok {
		*target = ec
		return true
	}
	return false
}
