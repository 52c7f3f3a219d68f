package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// External feeds
	BulkFeed BulkFeedConfig

	// Ingestion
	Ingest IngestConfig

	// Forecast
	Forecast ForecastConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// BulkFeedConfig holds the daily-bar download feed configuration
type BulkFeedConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// IngestConfig holds ingestion tuning
type IngestConfig struct {
	Workers int // concurrent bulk downloads
}

// ForecastConfig holds forecast run tuning
type ForecastConfig struct {
	LookbackBars int // most recent bars read per instrument
}

// SchedulerConfig holds cron schedules for the nightly jobs
type SchedulerConfig struct {
	IngestSpec   string
	ForecastSpec string
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		BulkFeed: BulkFeedConfig{
			BaseURL:        getEnv("BULK_FEED_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:        getEnvAsDuration("BULK_FEED_TIMEOUT", "30s"),
			RequestsPerSec: getEnvAsFloat("BULK_FEED_RPS", 2),
			Burst:          getEnvAsInt("BULK_FEED_BURST", 1),
		},

		Ingest: IngestConfig{
			Workers: getEnvAsInt("INGEST_WORKERS", 4),
		},

		Forecast: ForecastConfig{
			LookbackBars: getEnvAsInt("FORECAST_LOOKBACK_BARS", 60),
		},

		Scheduler: SchedulerConfig{
			IngestSpec:   getEnv("SCHEDULE_INGEST", "0 30 18 * * 1-5"),
			ForecastSpec: getEnv("SCHEDULE_FORECAST", "0 0 19 * * 1-5"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Forecast.LookbackBars < 1 {
		return fmt.Errorf("FORECAST_LOOKBACK_BARS must be at least 1")
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
