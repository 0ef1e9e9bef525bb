package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL        string
	CronSecret         string
	APIToken           string // bearer token for the write endpoints; empty leaves them to the proxy
	HTTPAddr           string
	LogLevel           string
	Environment        string
	FarmTimezone       *time.Location
	ReminderHour       int
	CronSpecSweep      string // daily reminder sweep
	CronSpecDelivery   string // push of due reminders
	DeliveryBatchSize  int
	TelegramToken      string // empty means reminders are only logged
	TelegramLinkSecret string
	AppBaseURL         string // prefix for reminder links; empty sends reminders without a button
	PolicyFile         string
	MinSqFtPerAnimal   float64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.CronSecret = os.Getenv("CRON_SECRET")
	cfg.APIToken = os.Getenv("API_TOKEN")
	cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	tz := getenv("FARM_TIMEZONE", "UTC")
	cfg.FarmTimezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid FARM_TIMEZONE %q: %w", tz, err)
	}

	cfg.ReminderHour, err = intEnv("REMINDER_HOUR", 9)
	if err != nil {
		return nil, err
	}
	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		return nil, fmt.Errorf("REMINDER_HOUR must be within 0..23, got %d", cfg.ReminderHour)
	}

	cfg.CronSpecSweep = getenv("CRON_SPEC_SWEEP", "0 6 * * *")
	cfg.CronSpecDelivery = getenv("CRON_SPEC_DELIVERY", "* * * * *")

	cfg.DeliveryBatchSize, err = intEnv("DELIVERY_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	if cfg.DeliveryBatchSize <= 0 {
		return nil, fmt.Errorf("DELIVERY_BATCH_SIZE must be positive, got %d", cfg.DeliveryBatchSize)
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramLinkSecret = os.Getenv("TELEGRAM_LINK_SECRET")

	cfg.AppBaseURL = os.Getenv("APP_BASE_URL")
	if cfg.AppBaseURL != "" {
		u, err := url.Parse(cfg.AppBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("APP_BASE_URL must be an absolute http(s) URL, got %q", cfg.AppBaseURL)
		}
	}
	cfg.PolicyFile = os.Getenv("POLICY_FILE")

	cfg.MinSqFtPerAnimal = 24
	if v := os.Getenv("REGIME_MIN_SQFT"); v != "" {
		cfg.MinSqFtPerAnimal, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid REGIME_MIN_SQFT: %w", err)
		}
		if cfg.MinSqFtPerAnimal <= 0 {
			return nil, fmt.Errorf("REGIME_MIN_SQFT must be positive")
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
