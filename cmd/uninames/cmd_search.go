package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"uninames/internal/config"
	"uninames/internal/golden"
	"uninames/internal/tabular"
)

var (
	searchGolden    string
	searchThreshold float64
	searchLimit     int
	searchExport    string
)

// searchCmd performs a fuzzy lookup in the golden reference
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the golden reference for a doctor name",
	Long: `Fuzzy search over golden reference aliases. Exact substring hits score
100, per-word containment 95, everything else by partial ratio.

Examples:
  uninames search "ahmed saad"
  uninames search mostafa --threshold 80 --limit 5 --export results.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchGolden, "golden", "", "Golden reference path (auto-detected if omitted)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 70, "Similarity threshold (0-100)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results")
	searchCmd.Flags().StringVar(&searchExport, "export", "", "Export results to an Excel/CSV file")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	path := searchGolden
	if path == "" {
		path = cfg.Paths.GoldenReference
		if found, ok := config.BestGoldenReference("."); ok {
			path = found
		}
	}

	ref, err := golden.Load(path)
	if err != nil {
		return fmt.Errorf("load golden reference: %w", err)
	}

	results := ref.Search(query, searchThreshold, searchLimit)
	if len(results) == 0 {
		fmt.Printf("No matches for %q in %s (%d records)\n", query, path, ref.Len())
		return nil
	}

	fmt.Printf("%-8s %-40s %-30s %s\n", "Score", "BI Name", "Standard Name", "Specialty")
	for _, r := range results {
		fmt.Printf("%-8.1f %-40s %-30s %s\n", r.Score, r.BIName, r.StandardName, r.Specialty)
	}

	if searchExport != "" {
		if err := exportSearchResults(searchExport, query, results); err != nil {
			return err
		}
		fmt.Printf("Results exported to %s\n", searchExport)
	}
	return nil
}

func exportSearchResults(path, query string, results []golden.SearchResult) error {
	t := &tabular.Table{
		Headers: []string{"Similarity_Percentage", "BI_Name_Original", "Standard_Name", "Original_Specialty", "Search_Query"},
	}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			strconv.FormatFloat(r.Score, 'f', 1, 64),
			r.BIName, r.StandardName, r.Specialty, query,
		})
	}
	return tabular.Write(path, []tabular.Sheet{{Name: "Search_Results", Table: t}})
}
