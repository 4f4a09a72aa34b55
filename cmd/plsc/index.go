package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/plsc/internal/config"
	"github.com/standardbeagle/plsc/internal/workspace"
	"github.com/standardbeagle/plsc/pkg/pathutil"
)

var indexCommand = &cli.Command{
	Name:      "index",
	Usage:     "Scan a workspace root and report the resulting symbol index",
	ArgsUsage: "<root>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "List every symbol found",
		},
	},
	Action: func(c *cli.Context) error {
		root := c.Args().First()
		if root == "" {
			root = "."
		}

		cfg, err := config.Load(root)
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("loading config: %w", err)}
		}

		coord := workspace.New()
		result, err := coord.Scan(context.Background(), workspace.ScanOptions{
			Root:                  root,
			IncludeGlobs:          cfg.Include,
			ExcludeGlobs:          cfg.Exclude,
			RespectGitignore:      cfg.Index.RespectGitignore,
			ValidationThresholdKB: cfg.Index.ValidationThresholdKB,
		})
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("scanning %s: %w", root, err)}
		}
		coord.TransitionToReady()

		fmt.Printf("indexed %d file(s), skipped %d\n", result.FilesIndexed, result.FilesSkipped)
		for _, scanErr := range result.Errors {
			fmt.Printf("  warning: %v\n", scanErr)
		}
		fmt.Printf("state: %s\n", coord.State())

		if c.Bool("verbose") {
			absRoot, absErr := filepath.Abs(root)
			if absErr != nil {
				absRoot = root
			}
			for _, sym := range pathutil.ToRelativeWorkspaceSymbols(coord.AllSymbols(), absRoot) {
				fmt.Printf("  %-24s %-16s %s\n", sym.Symbol.Name, sym.Symbol.Kind, sym.URI)
			}
		}

		return nil
	},
}
