package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sow_tracker/internal/infra/database"
	"sow_tracker/internal/infra/httpapi"
	"sow_tracker/internal/infra/logger"
	"sow_tracker/internal/infra/scheduler"
	"sow_tracker/internal/infra/telegram"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveMigrate bool

// serveCmd runs the HTTP API, the Telegram bot and the cron jobs
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, Telegram bot and reminder cron jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply pending database migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if serveMigrate {
		applied, err := database.Migrate(ctx, svc.db)
		if err != nil {
			return err
		}
		logger.Log.WithField("applied", applied).Info("Database migrations up to date.")
	}

	baseLogger := logger.Component("sow_tracker")
	if cfg.APIToken == "" {
		logger.Log.Warn("API_TOKEN is empty; write endpoints must be protected by an authenticating proxy")
	}
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewHandler(httpapi.Deps{
			CronSecret: cfg.CronSecret,
			APIToken:   cfg.APIToken,
			Sweeper:    svc.sweep,
			Breeding:   svc.breeding,
			Housing:    svc.housing,
			Accounts:   svc.accounts,
			DB:         svc.db,
			Metrics:    svc.metrics.Handler(),
			Logger:     baseLogger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	reminders := scheduler.NewReminderScheduler(
		svc.sweep,
		svc.delivery,
		baseLogger,
		cfg.FarmTimezone,
		cfg.CronSpecSweep,
		cfg.CronSpecDelivery,
	)
	if err := reminders.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if svc.bot != nil {
		telegram.RegisterBotCommands(gctx, svc.bot, svc.accounts, baseLogger)
		g.Go(func() error {
			logger.Log.Info("Telegram bot polling started")
			svc.bot.Start() // blocks until Stop
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down application...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if svc.bot != nil {
			svc.bot.Stop()
		}
		reminders.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Log.Info("Application shut down gracefully.")
	return nil
}
