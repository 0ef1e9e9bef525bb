package main

import (
	"fmt"
	"os"

	"sow_tracker/internal/infra/config"
	"sow_tracker/internal/infra/logger"

	"github.com/spf13/cobra"
)

var (
	// Loaded in PersistentPreRunE for every subcommand.
	cfg *config.AppConfig
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sowtracker",
	Short: "Sow Tracker - breeding-cycle reminders for pig farms",
	Long: `Sow Tracker follows every sow through breeding, pregnancy check,
farrowing and weaning, and reminds the responsible user on Telegram
before each milestone.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("could not load application configuration: %w", err)
		}
		logger.Init(cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, sweepCmd, deliverCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
