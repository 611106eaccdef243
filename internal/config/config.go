package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ReportsDir      string
	DBPath          string
	AdjustmentsPath string
	OutputDir       string
	ArchiveURL      string
	ServerPort      string
	LogLevel        string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ReportsDir:      getEnv("REPORTS_DIR", "reports"),
		DBPath:          getEnv("DB_PATH", "ladder.db"),
		AdjustmentsPath: getEnv("ADJUSTMENTS_PATH", "rank_adjustments.json"),
		OutputDir:       getEnv("OUTPUT_DIR", "docs"),
		ArchiveURL:      getEnv("ARCHIVE_URL", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	logger.Info().
		Str("reports_dir", cfg.ReportsDir).
		Str("db_path", cfg.DBPath).
		Str("adjustments_path", cfg.AdjustmentsPath).
		Str("output_dir", cfg.OutputDir).
		Str("archive_url", cfg.ArchiveURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
