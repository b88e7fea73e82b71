package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uninames/internal/pipeline"
	"uninames/internal/watch"
)

var (
	watchDir    string
	watchOutDir string
)

// watchCmd processes workbooks dropped into a directory
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and process dropped files",
	Long: `Watches a drop directory; every new .xlsx/.csv file is run through the
cleaning pipeline, producing <name>_cleaned.xlsx in the output directory.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Directory to watch (default from config)")
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "Output directory (defaults to the watched directory)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := watchDir
	if dir == "" {
		dir = cfg.Paths.WatchDir
	}
	outDir := watchOutDir
	if outDir == "" {
		outDir = dir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(pipeline.New(cfg, logger), outDir, logger)
	if err := w.Run(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
