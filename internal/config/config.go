package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/engine"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	CBRURL     string
	RateMargin string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	RemindersEnabled bool
	ReminderDays     int

	StatementDay      int
	MinPaymentPercent string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBConn:   getEnv("DB_CONN", "host=localhost port=5432 user=finbudget password=finbudget dbname=finbudget sslmode=disable"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		CBRURL:     getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		RateMargin: getEnv("RATE_MARGIN", "5"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@finbudget.local"),

		RemindersEnabled: getEnv("REMINDERS_ENABLED", "true") == "true",

		MinPaymentPercent: getEnv("MIN_PAYMENT_PERCENT", "0.05"),
	}

	var err error
	cfg.ReminderDays, err = getEnvInt("REMINDER_DAYS", 3)
	if err != nil {
		return nil, err
	}
	cfg.StatementDay, err = getEnvInt("STATEMENT_DAY", 5)
	if err != nil {
		return nil, err
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.StatementDay < 1 || cfg.StatementDay > 28 {
		return nil, fmt.Errorf("STATEMENT_DAY must be between 1 and 28, got %d", cfg.StatementDay)
	}
	if _, err := decimal.NewFromString(cfg.MinPaymentPercent); err != nil {
		return nil, fmt.Errorf("MIN_PAYMENT_PERCENT is not a number: %w", err)
	}
	if _, err := decimal.NewFromString(cfg.RateMargin); err != nil {
		return nil, fmt.Errorf("RATE_MARGIN is not a number: %w", err)
	}

	return cfg, nil
}

// Policy builds the engine policy from the defaults plus the configured
// overrides.
func (c *Config) Policy() engine.Policy {
	policy := engine.DefaultPolicy()
	policy.StatementDay = c.StatementDay
	policy.MinPaymentPercent = decimal.RequireFromString(c.MinPaymentPercent)
	return policy
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not an integer: %w", key, err)
	}
	return n, nil
}
