package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uninames/internal/config"
	"uninames/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "uninames",
	Short: "uninames - doctor name cleaning and deduplication",
	Long: `uninames cleans, standardizes and deduplicates provider name lists
exported from BI systems.

It classifies rows as persons or facilities, extracts the person name from
polluted strings (titles, branch codes, service words), folds transliteration
variants, normalizes specialties, matches names against a golden reference,
and clusters the remaining near-duplicates for review.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// versionCmd prints the tool version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the uninames version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("uninames %s\n", cfg.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "uninames.yaml", "Config file path")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(goldenCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
