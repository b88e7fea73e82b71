package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uninames/internal/golden"
)

var (
	learnGolden   string
	learnReviewed string
	learnOut      string
)

// learnCmd folds reviewed output back into the golden reference
var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Update the golden reference from a reviewed output file",
	Long: `Merges a reviewed output file (must include BI Name and Standard_Name
columns) into the base golden reference. Later entries win per clean alias.

Example:
  uninames learn --golden reference/golden_doctors.xlsx --reviewed cleaned.xlsx`,
	RunE: runLearn,
}

func init() {
	learnCmd.Flags().StringVar(&learnGolden, "golden", "", "Base golden reference to update (required)")
	learnCmd.Flags().StringVar(&learnReviewed, "reviewed", "", "Reviewed file to merge (required)")
	learnCmd.Flags().StringVar(&learnOut, "out", "", "Output path (defaults to --golden)")
	learnCmd.MarkFlagRequired("golden")
	learnCmd.MarkFlagRequired("reviewed")
}

func runLearn(cmd *cobra.Command, args []string) error {
	logger.Info("updating golden reference",
		zap.String("golden", learnGolden),
		zap.String("reviewed", learnReviewed))

	n, target, err := golden.UpdateFromReview(learnGolden, learnReviewed, learnOut)
	if err != nil {
		return err
	}

	fmt.Printf("Golden reference updated: %s (%d records)\n", target, n)
	return nil
}
