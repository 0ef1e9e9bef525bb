package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/cycle"
	domainTelegram "sow_tracker/internal/domain/telegram"
	"sow_tracker/internal/infra/config"
	idb "sow_tracker/internal/infra/database"
	"sow_tracker/internal/infra/logger"
	"sow_tracker/internal/infra/metrics"
	"sow_tracker/internal/infra/telegram"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// services is the wired application.
type services struct {
	db       *sql.DB
	metrics  *metrics.Collectors
	bot      *telebot.Bot // nil without TELEGRAM_TOKEN
	sweep    *app.SweepServiceImpl
	delivery *app.DeliveryServiceImpl
	breeding *app.BreedingService
	housing  *app.HousingService
	accounts *app.AccountService
}

func (s *services) Close() {
	if err := s.db.Close(); err != nil {
		logger.Log.WithError(err).Warn("Error closing database")
	}
}

func openDB(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	logger.Log.Info("Database connection established successfully.")
	return db, nil
}

func buildServices(ctx context.Context, cfg *config.AppConfig) (*services, error) {
	policies, err := config.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	breedingRepo := idb.NewPostgresBreedingRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	userRepo := idb.NewPostgresUserRepository(db)
	housingRepo := idb.NewPostgresHousingRepository(db)

	collectors := metrics.New()
	scheduler := app.NewScheduler(notificationRepo, logger.Component("scheduling"))

	s := &services{db: db, metrics: collectors}

	var client domainTelegram.Client
	if cfg.TelegramToken != "" {
		s.bot, err = newBot(cfg.TelegramToken, logger.Component("telebot"))
		if err != nil {
			db.Close()
			return nil, err
		}
		if cfg.AppBaseURL == "" {
			logger.Log.Warn("APP_BASE_URL is empty; reminders will be sent without an Open button")
		}
		client = telegram.NewTelebotAdapter(s.bot, cfg.AppBaseURL)
	} else {
		logger.Log.Warn("TELEGRAM_TOKEN is empty; reminders will only be logged")
		client = telegram.NewLoggingClient(logger.Component("delivery"))
	}

	s.sweep = app.NewSweepService(
		breedingRepo,
		scheduler,
		policies,
		app.SweepOptions{Location: cfg.FarmTimezone, ReminderHour: cfg.ReminderHour},
		time.Now,
		collectors,
		logger.Component("sweep"),
	)
	s.delivery = app.NewDeliveryService(notificationRepo, client, cfg.DeliveryBatchSize, time.Now, collectors, logger.Component("delivery"))
	s.breeding = app.NewBreedingService(breedingRepo, scheduler, policies, cfg.FarmTimezone, time.Now, logger.Component("breeding"))
	s.housing = app.NewHousingService(housingRepo, cfg.MinSqFtPerAnimal, time.Now, logger.Component("housing"))
	s.accounts = app.NewAccountService(userRepo, notificationRepo, cfg.TelegramLinkSecret, cfg.FarmTimezone, time.Now, logger.Component("account"))

	logPolicy(policies.For(uuid.Nil))
	return s, nil
}

func newBot(token string, log *logrus.Entry) (*telebot.Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("telebot error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return bot, nil
}

func logPolicy(p cycle.Policy) {
	logger.Log.WithFields(logrus.Fields{
		"gestation_days":       p.GestationDays,
		"pregnancy_check_days": p.PregnancyCheckDays,
		"weaning_age_days":     p.WeaningAgeDays,
		"heat_return_days":     p.HeatReturnDays,
	}).Debug("Default cycle policy")
}
