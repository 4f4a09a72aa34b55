package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/plsc/internal/config"
	"github.com/standardbeagle/plsc/internal/watch"
	"github.com/standardbeagle/plsc/internal/workspace"
)

var watchCommand = &cli.Command{
	Name:      "watch",
	Usage:     "Index a workspace root, then keep the index live as files change until interrupted",
	ArgsUsage: "<root>",
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
		fmt.Printf("indexed %d file(s), skipped %d; watching %s for changes (ctrl-c to stop)\n", result.FilesIndexed, result.FilesSkipped, root)

		w, err := watch.New(coord, root, watch.Options{
			DebounceMs:   cfg.Index.WatchDebounceMs,
			IncludeGlobs: cfg.Include,
			ExcludeGlobs: cfg.Exclude,
		})
		if err != nil {
			return &exitCode{code: exitUnhandled, err: fmt.Errorf("starting watcher: %w", err)}
		}
		defer w.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		fmt.Printf("stopped; final state: %s\n", coord.State())
		return nil
	},
}
