package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Required
	SeedNodes  []string
	CronSecret string

	// Optional with defaults
	ListenAddr         string
	DatabasePath       string
	RetentionDays      int
	PollInterval       time.Duration
	InteractiveTimeout time.Duration
	BatchTimeout       time.Duration
	CreditsEndpoint    string
	CreditsTimeout     time.Duration
	LatestVersion      string
	GeoDBPath          string
}

func Load() (*Config, error) {
	// A local .env is optional; deployments set the environment directly.
	_ = godotenv.Load(".env")

	cfg := &Config{
		CronSecret: os.Getenv("CRON_SECRET"),

		ListenAddr:      getEnvOrDefault("LISTEN_ADDR", ":8080"),
		DatabasePath:    getEnvOrDefault("DATABASE_PATH", "/data/pnode-watch.db"),
		CreditsEndpoint: getEnvOrDefault("CREDITS_ENDPOINT", "https://podcredits.xandeum.network/api/pods-credits"),
		LatestVersion:   os.Getenv("LATEST_POD_VERSION"),
		GeoDBPath:       os.Getenv("GEOIP_DB_PATH"),
	}

	cfg.SeedNodes = parseCommaSeparated(os.Getenv("SEED_NODES"))

	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}

	retentionStr := getEnvOrDefault("RETENTION_DAYS", "30")
	retention, err := strconv.Atoi(retentionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_DAYS: %w", err)
	}
	if retention < 1 {
		return nil, fmt.Errorf("RETENTION_DAYS must be at least 1")
	}
	cfg.RetentionDays = retention

	cfg.PollInterval, err = parseDurationEnv("POLL_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	cfg.InteractiveTimeout, err = parseDurationEnv("INTERACTIVE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.BatchTimeout, err = parseDurationEnv("BATCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.CreditsTimeout, err = parseDurationEnv("CREDITS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDurationEnv(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCommaSeparated(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
