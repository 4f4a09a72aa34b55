package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/plsc/internal/parser"
	"github.com/standardbeagle/plsc/internal/symbols"
)

var symbolsCommand = &cli.Command{
	Name:      "symbols",
	Usage:     "Extract and print the symbol table for a Perl source file",
	ArgsUsage: "<file.pl>",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return usageError("usage: plsc symbols <file.pl>")
		}
		path := c.Args().First()
		src, err := os.ReadFile(path)
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("reading %s: %w", path, err)}
		}

		result, err := parser.Parse(src)
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("parsing %s: %w", path, err)}
		}

		table := symbols.Extract(result.Tree)
		stats := symbols.Summarize(table)
		fmt.Printf("%s: %s\n", path, stats)

		for _, group := range table.Symbols {
			for _, sym := range group {
				fmt.Printf("  %-24s %-16s %s\n", sym.Name, sym.Kind, sym.Location)
			}
		}

		return nil
	},
}
