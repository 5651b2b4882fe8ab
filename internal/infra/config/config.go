package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string `validate:"required"`
	DatabaseURL   string `validate:"required"`
	RedisURL      string // Empty keeps conversation state in memory
	LogLevel      string `validate:"oneof=trace debug info warn warning error fatal panic"`
	Environment   string `validate:"required"`

	GreetingTime     string `validate:"required,datetime=15:04"`
	GreetingCronSpec string // Overrides GreetingTime when set
	UpcomingDays     int    `validate:"min=1,max=366"`

	BackupEnabled        bool
	BackupDir            string `validate:"required_if=BackupEnabled true"`
	CronSpecBackupHourly string
	CronSpecBackupWeekly string
	CronSpecBackupYearly string
	BackupS3Bucket       string
	AWSRegion            string `validate:"required_with=BackupS3Bucket"`

	MetricsAddr string        // Empty disables the HTTP server
	SessionTTL  time.Duration `validate:"min=1m"`
}

var validate = validator.New()

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("BOT_TOKEN")
	if cfg.TelegramToken == "" {
		cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	cfg.DatabaseURL = getenv("DATABASE_URL", "sqlite://birthday_bot.db")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))

	cfg.GreetingTime = getenv("GREETING_TIME", "08:00") // Default: 8:00 AM local time
	cfg.GreetingCronSpec = os.Getenv("GREETING_CRON_SPEC")
	if cfg.UpcomingDays, err = getenvInt("UPCOMING_DAYS", 7); err != nil {
		return nil, err
	}

	if cfg.BackupEnabled, err = getenvBool("BACKUP_ENABLED", true); err != nil {
		return nil, err
	}
	cfg.BackupDir = getenv("BACKUP_DIR", "backups")
	cfg.CronSpecBackupHourly = getenv("CRON_SPEC_BACKUP_HOURLY", "0 * * * *") // Default: top of every hour
	cfg.CronSpecBackupWeekly = getenv("CRON_SPEC_BACKUP_WEEKLY", "0 0 * * 0") // Default: Sunday midnight
	cfg.CronSpecBackupYearly = getenv("CRON_SPEC_BACKUP_YEARLY", "0 0 1 1 *") // Default: January 1st
	cfg.BackupS3Bucket = os.Getenv("BACKUP_S3_BUCKET")
	cfg.AWSRegion = os.Getenv("AWS_REGION")

	cfg.MetricsAddr = ":9090"
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok { // Set but empty disables
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if cfg.SessionTTL, err = getenvDuration("SESSION_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
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

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
