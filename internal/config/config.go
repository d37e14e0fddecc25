package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string

	// Calendar provider webhook; empty disables outbound notifications.
	CalendarWebhookURL string

	// Directory offer documents are written to.
	UploadsDir string

	// Cron spec for the auto-step sweep; empty disables the sweep.
	SweepSpec string

	BatchWorkers int
	LogLevel     string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, trying parent directory")
		if err := godotenv.Load("../../.env"); err != nil {
			slog.Warn("no .env file found, using environment variables")
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}

	sweepSpec := os.Getenv("SWEEP_SPEC")
	if sweepSpec == "" {
		sweepSpec = "@every 15m"
	}

	workers := 2
	if v := os.Getenv("BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               port,
		CalendarWebhookURL: os.Getenv("CALENDAR_WEBHOOK_URL"),
		UploadsDir:         uploadsDir,
		SweepSpec:          sweepSpec,
		BatchWorkers:       workers,
		LogLevel:           os.Getenv("LOG_LEVEL"),
	}
}

// SlogLevel maps the configured level name to a slog level, defaulting to
// info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
