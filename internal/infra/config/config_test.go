package config

import (
	"os"
	"path/filepath"
	"testing"

	"sow_tracker/internal/domain/cycle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "CRON_SECRET", "HTTP_ADDR", "LOG_LEVEL", "ENVIRONMENT", "FARM_TIMEZONE",
		"REMINDER_HOUR", "CRON_SPEC_SWEEP", "CRON_SPEC_DELIVERY", "DELIVERY_BATCH_SIZE",
		"TELEGRAM_TOKEN", "TELEGRAM_LINK_SECRET", "POLICY_FILE", "REGIME_MIN_SQFT",
		"APP_BASE_URL", "API_TOKEN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/sow")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "UTC", cfg.FarmTimezone.String())
	assert.Equal(t, 9, cfg.ReminderHour)
	assert.Equal(t, "0 6 * * *", cfg.CronSpecSweep)
	assert.Equal(t, "* * * * *", cfg.CronSpecDelivery)
	assert.Equal(t, 100, cfg.DeliveryBatchSize)
	assert.Equal(t, 24.0, cfg.MinSqFtPerAnimal)
	assert.Empty(t, cfg.TelegramToken)
	assert.Empty(t, cfg.AppBaseURL)
	assert.Empty(t, cfg.APIToken)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/sow")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("REMINDER_HOUR", "7")
	t.Setenv("DELIVERY_BATCH_SIZE", "25")
	t.Setenv("REGIME_MIN_SQFT", "20.5")
	t.Setenv("APP_BASE_URL", "https://farm.example.com/app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://farm.example.com/app", cfg.AppBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.ReminderHour)
	assert.Equal(t, 25, cfg.DeliveryBatchSize)
	assert.Equal(t, 20.5, cfg.MinSqFtPerAnimal)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{}},
		{"bad hour", map[string]string{"DATABASE_URL": "x", "REMINDER_HOUR": "24"}},
		{"hour not a number", map[string]string{"DATABASE_URL": "x", "REMINDER_HOUR": "nine"}},
		{"bad batch", map[string]string{"DATABASE_URL": "x", "DELIVERY_BATCH_SIZE": "0"}},
		{"bad timezone", map[string]string{"DATABASE_URL": "x", "FARM_TIMEZONE": "Mars/Olympus"}},
		{"bad sqft", map[string]string{"DATABASE_URL": "x", "REGIME_MIN_SQFT": "-1"}},
		{"relative base url", map[string]string{"DATABASE_URL": "x", "APP_BASE_URL": "/app"}},
		{"base url without scheme", map[string]string{"DATABASE_URL": "x", "APP_BASE_URL": "farm.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicies_EmptyPathIsDefault(t *testing.T) {
	set, err := LoadPolicies("")
	require.NoError(t, err)
	assert.Equal(t, cycle.DefaultPolicy(), set.Default)
	assert.Empty(t, set.Overrides)
}

func TestLoadPolicies_File(t *testing.T) {
	org := uuid.New()
	doc := `
default:
  weaning_age_days: 28
organizations:
  ` + org.String() + `:
    gestation_days: 115
    farrowing_lead_days: 5
`
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	set, err := LoadPolicies(path)
	require.NoError(t, err)

	assert.Equal(t, 28, set.Default.WeaningAgeDays)
	assert.Equal(t, cycle.DefaultGestationDays, set.Default.GestationDays)

	p := set.For(org)
	assert.Equal(t, 115, p.GestationDays)
	assert.Equal(t, 5, p.FarrowingLeadDays)
	assert.Equal(t, 28, p.WeaningAgeDays, "organization inherits the file default")
	assert.Equal(t, set.Default, set.For(uuid.New()))
}

func TestParsePolicies_ExplicitZeroLeadOverridesDefault(t *testing.T) {
	org := uuid.New()
	doc := `
default:
  farrowing_lead_days: 0
organizations:
  ` + org.String() + `:
    weaning_lead_days: 0
    soon_days: 0
`
	set, err := ParsePolicies([]byte(doc))
	require.NoError(t, err)

	assert.Zero(t, set.Default.FarrowingLeadDays)
	assert.Equal(t, cycle.DefaultPolicy().WeaningLeadDays, set.Default.WeaningLeadDays)

	p := set.For(org)
	assert.Zero(t, p.FarrowingLeadDays, "organization inherits the explicit 0")
	assert.Zero(t, p.WeaningLeadDays)
	assert.Zero(t, p.SoonDays)
	assert.Equal(t, cycle.DefaultGestationDays, p.GestationDays)
}

func TestParsePolicies_EmptyOrganizationEntryInheritsDefault(t *testing.T) {
	org := uuid.New()
	set, err := ParsePolicies([]byte("default:\n  weaning_age_days: 28\norganizations:\n  " + org.String() + ":\n"))
	require.NoError(t, err)
	assert.Equal(t, set.Default, set.For(org))
}

func TestParsePolicies_Rejects(t *testing.T) {
	_, err := ParsePolicies([]byte("organizations:\n  not-a-uuid:\n    gestation_days: 110\n"))
	assert.Error(t, err)

	_, err = ParsePolicies([]byte("default:\n  pregnancy_check_days: 200\n"))
	assert.Error(t, err)

	_, err = ParsePolicies([]byte("default: [1, 2"))
	assert.Error(t, err)

	_, err = LoadPolicies(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
