package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/plsc/internal/parser"
	"github.com/standardbeagle/plsc/internal/types"
)

var parseCommand = &cli.Command{
	Name:      "parse",
	Usage:     "Parse a Perl source file and print its diagnostics",
	ArgsUsage: "<file.pl>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "tree",
			Usage: "Print a node count summary instead of just diagnostics",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return usageError("usage: plsc parse <file.pl>")
		}
		path := c.Args().First()
		src, err := os.ReadFile(path)
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("reading %s: %w", path, err)}
		}

		result, antiPatterns, err := parser.ParseWithAntiPatterns(src)
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("parsing %s: %w", path, err)}
		}

		if len(result.Errors) == 0 {
			fmt.Printf("%s: parsed cleanly\n", path)
		} else {
			fmt.Printf("%s: %d diagnostic(s)\n", path, len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s at %s: %s\n", e.Kind, e.Location, e.Message)
			}
		}
		for _, d := range antiPatterns {
			fmt.Printf("  %s at %s: %s\n", d.Severity, d.Location, d.Message)
		}

		if c.Bool("tree") {
			fmt.Printf("nodes: %d\n", countNodes(result.Tree))
		}

		return nil
	},
}

func countNodes(tree *types.Tree) int {
	if tree == nil {
		return 0
	}
	return len(tree.Nodes)
}
