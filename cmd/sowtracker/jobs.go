package main

import (
	"encoding/json"
	"fmt"
	"os"

	"sow_tracker/internal/domain/user"
	"sow_tracker/internal/infra/database"
	"sow_tracker/internal/infra/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sweepOrg string

// sweepCmd runs one reminder sweep, the same work as the cron endpoint
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reminder sweep and print its summary as JSON",
	Long: `Scans breedings, litters and weaned sows and schedules the farrowing,
weaning, breeding and pregnancy-check reminders that fall inside their
lead windows. Reruns on the same day schedule nothing new.

Example:
  sowtracker sweep --org 3f6c0a2e-8d1b-4f7a-9c55-0b6e2d1f4a77`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		scope := user.All()
		if sweepOrg != "" {
			org, err := uuid.Parse(sweepOrg)
			if err != nil {
				return fmt.Errorf("invalid --org %q: %w", sweepOrg, err)
			}
			scope = user.OrganizationScope(org)
		}

		svc, err := buildServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		summary := svc.sweep.RunSweep(cmd.Context(), scope)
		if err := printJSON(summary); err != nil {
			return err
		}
		if summary.Failed() {
			return fmt.Errorf("sweep failed in every category")
		}
		return nil
	},
}

// deliverCmd pushes one batch of due reminders
var deliverCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Send one batch of due reminders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := buildServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		report, err := svc.delivery.DeliverDue(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

// migrateCmd applies the embedded schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := database.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			logger.Log.Info("Database schema is up to date.")
		}
		for _, name := range applied {
			logger.Log.WithField("migration", name).Info("Applied migration")
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepOrg, "org", "", "limit the sweep to one organization id")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
