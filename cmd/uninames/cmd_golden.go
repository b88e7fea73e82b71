package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uninames/internal/golden"
)

var (
	goldenDBPath string
	goldenFile   string
)

// goldenCmd groups the golden-store subcommands
var goldenCmd = &cobra.Command{
	Use:   "golden",
	Short: "Manage the persistent golden reference store",
	Long: `The golden store keeps the alias -> standard-name reference in SQLite so
it survives between runs without round-tripping through workbooks.`,
}

var goldenImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a golden workbook or CSV into the store",
	RunE:  runGoldenImport,
}

var goldenExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the store to a golden workbook or CSV",
	RunE:  runGoldenExport,
}

var goldenStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show golden store statistics",
	RunE:  runGoldenStats,
}

func init() {
	goldenCmd.PersistentFlags().StringVar(&goldenDBPath, "db", "", "Store database path (default from config)")
	goldenImportCmd.Flags().StringVar(&goldenFile, "file", "", "Workbook/CSV to import (required)")
	goldenImportCmd.MarkFlagRequired("file")
	goldenExportCmd.Flags().StringVar(&goldenFile, "file", "", "Workbook/CSV to write (required)")
	goldenExportCmd.MarkFlagRequired("file")

	goldenCmd.AddCommand(goldenImportCmd)
	goldenCmd.AddCommand(goldenExportCmd)
	goldenCmd.AddCommand(goldenStatsCmd)
}

func openGoldenStore() (*golden.Store, error) {
	path := goldenDBPath
	if path == "" {
		path = cfg.Paths.GoldenDB
	}
	return golden.OpenStore(path)
}

func runGoldenImport(cmd *cobra.Command, args []string) error {
	store, err := openGoldenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportWorkbook(goldenFile)
	if err != nil {
		return err
	}
	logger.Info("imported golden records", zap.Int("count", n), zap.String("db", store.Path()))
	fmt.Printf("Imported %d records into %s\n", n, store.Path())
	return nil
}

func runGoldenExport(cmd *cobra.Command, args []string) error {
	store, err := openGoldenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ExportWorkbook(goldenFile)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d records to %s\n", n, goldenFile)
	return nil
}

func runGoldenStats(cmd *cobra.Command, args []string) error {
	store, err := openGoldenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Count()
	if err != nil {
		return err
	}

	records, err := store.All()
	if err != nil {
		return err
	}
	standards := make(map[string]bool)
	for _, rec := range records {
		standards[rec.StandardName] = true
	}

	fmt.Printf("Store: %s\n", store.Path())
	fmt.Printf("Records: %d\n", n)
	fmt.Printf("Unique standard names: %d\n", len(standards))
	return nil
}
