package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"uninames/internal/pipeline"
)

var (
	processInput      string
	processOutput     string
	processGolden     string
	processNewAliases string
	processThreshold  float64
)

// processCmd runs the cleaning pipeline over one file
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Clean a doctors list with smart extraction and golden matching",
	Long: `Processes a BI export through the full cleaning pipeline:
  1. Classify rows as persons or facilities
  2. Extract person names, drop titles/branch codes/service words
  3. Normalize tokens and specialties
  4. Match against the golden reference (exact, alias, fuzzy)
  5. Cluster unmatched near-duplicates for review

Writes an output workbook (Doctors / Facilities sheets) and a review file
of aliases unknown to the golden reference.

Example:
  uninames process --input "Doctor List.xlsx" --output cleaned.xlsx`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processInput, "input", "", "Input Excel/CSV file (required)")
	processCmd.Flags().StringVar(&processOutput, "output", "", "Output workbook path (required)")
	processCmd.Flags().StringVar(&processGolden, "golden", "", "Golden reference path (auto-detected if omitted)")
	processCmd.Flags().StringVar(&processNewAliases, "new-aliases-out", "", "Where to write new/unmapped aliases")
	processCmd.Flags().Float64Var(&processThreshold, "threshold", 0, "Unsure-band similarity threshold (0-1, default from config)")
	processCmd.MarkFlagRequired("input")
	processCmd.MarkFlagRequired("output")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc := pipeline.New(cfg, logger)
	stats, err := proc.Run(ctx, pipeline.Request{
		InputPath:     processInput,
		OutputPath:    processOutput,
		GoldenPath:    processGolden,
		NewAliasesOut: processNewAliases,
		Threshold:     processThreshold,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d persons, %d facilities in %s\n", stats.Persons, stats.Facilities, stats.Elapsed.Round(time.Millisecond))
	fmt.Printf("Golden matches: %d/%d\n", stats.GoldenMatches, stats.Persons)
	fmt.Printf("Unique names: %d -> %d (%.1f%% reduction)\n", stats.UniqueBefore, stats.UniqueAfter, stats.ReductionPct)
	if stats.NewAliases > 0 {
		fmt.Printf("New aliases for review: %d\n", stats.NewAliases)
	}
	return nil
}
