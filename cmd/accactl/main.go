// Package main provides an operations CLI for the accumulator engine:
// fetching odds, running builds, and seeding historical stats from the
// command line against the shared storage file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/acca-engine/internal/builder"
	"github.com/yourusername/acca-engine/internal/config"
	"github.com/yourusername/acca-engine/internal/datasource"
	"github.com/yourusername/acca-engine/internal/logger"
	"github.com/yourusername/acca-engine/internal/models"
	"github.com/yourusername/acca-engine/internal/odds"
	"github.com/yourusername/acca-engine/internal/probability"
	"github.com/yourusername/acca-engine/internal/storage"
)

var (
	configFile string
	appLogger  *logrus.Logger
	cfg        *config.Config
	store      *storage.Store
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(seedStatsCmd)

	buildCmd.Flags().Int("min", 0, "Minimum selections per accumulator (defaults to config)")
	buildCmd.Flags().Int("max", 0, "Maximum selections per accumulator (defaults to config)")
}

var rootCmd = &cobra.Command{
	Use:   "accactl",
	Short: "Operate the accumulator engine from the command line",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		appLogger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

		store, err = storage.NewStore(cfg.Storage.Path, appLogger)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [sport]",
	Short: "Fetch current odds and store the snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sport := cfg.OddsAPI.DefaultSport
		if len(args) == 1 {
			sport = args[0]
		}

		client := datasource.NewClient(cfg.OddsAPI, appLogger)
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		selections, err := client.FetchOdds(ctx, sport)
		if err != nil {
			return fmt.Errorf("failed to fetch odds: %w", err)
		}
		if err := store.SaveSelections(selections); err != nil {
			return fmt.Errorf("failed to store odds: %w", err)
		}

		fmt.Printf("Stored %d selections for %s\n", len(selections), sport)
		return nil
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build ranked accumulators from stored odds",
	RunE: func(cmd *cobra.Command, args []string) error {
		selections := store.GetSelections()
		if len(selections) == 0 {
			fmt.Println("No odds stored. Run 'accactl fetch' first.")
			return nil
		}

		model := probability.NewModel(appLogger)
		model.LoadHistoricalStats(store.GetTeamStats())

		opts := builder.Options{
			MinSelections:        cfg.Builder.MinSelections,
			MaxSelections:        cfg.Builder.MaxSelections,
			ProbabilityThreshold: cfg.Builder.ProbabilityThreshold,
			PriceRangeLow:        cfg.Builder.OddsRangeLow,
			PriceRangeHigh:       cfg.Builder.OddsRangeHigh,
		}
		if v, _ := cmd.Flags().GetInt("min"); v >= 2 {
			opts.MinSelections = v
		}
		if v, _ := cmd.Flags().GetInt("max"); v >= 2 {
			opts.MaxSelections = v
		}
		if opts.MinSelections > opts.MaxSelections {
			return fmt.Errorf("min selections (%d) must not exceed max selections (%d)",
				opts.MinSelections, opts.MaxSelections)
		}

		accumulators := builder.NewBuilder(model, appLogger).Build(selections, opts)
		if err := store.SaveAccumulators(accumulators); err != nil {
			return fmt.Errorf("failed to store accumulators: %w", err)
		}

		printAccumulators(accumulators)
		return nil
	},
}

var seedStatsCmd = &cobra.Command{
	Use:   "seed-stats",
	Short: "Seed the historical stats store with development data",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := datasource.MockTeamStats()
		if err := store.SaveTeamStats(stats); err != nil {
			return fmt.Errorf("failed to store stats: %w", err)
		}
		fmt.Printf("Seeded stats for %d teams\n", len(stats))
		return nil
	},
}

func printAccumulators(accumulators []*models.Accumulator) {
	if len(accumulators) == 0 {
		fmt.Println("No qualifying accumulators.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tLEGS\tODDS\tDECIMAL\tPROBABILITY")
	for i, acc := range accumulators {
		fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%.4f\n",
			i+1, acc.Size(), odds.FormatAmerican(acc.CombinedAmericanOdds),
			acc.CombinedDecimalOdds, acc.TotalProbability)
	}
	w.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
