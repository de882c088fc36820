// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultWatchlist is the symbol universe the agent considers each cycle.
// Held symbols outside the list are merged in at decision time.
var DefaultWatchlist = []string{
	"NVDA", "AMD", "AAPL", "MSFT", "GOOGL",
	"META", "TSLA", "AMZN", "JPM", "SPY",
}

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases, always absolute
	Port     int
	LogLevel string
	DevMode  bool

	// Agent / model settings
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	AgentSchedule    string // cron expression for the autonomous cycle
	Watchlist        []string

	// Market session settings
	MarketTimezone string

	// Quote cache
	QuoteCacheTTLSeconds int

	// Snapshot and backup jobs
	SnapshotSchedule string
	Backup           *BackupConfig
}

// BackupConfig holds S3-compatible backup settings. Backups are disabled
// when credentials are absent.
type BackupConfig struct {
	Enabled       bool
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Schedule      string
	RetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADELAB_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AgentSchedule:    getEnv("AGENT_SCHEDULE", "0 30 10,13,15 * * 1-5"),
		Watchlist:        getEnvAsList("WATCHLIST", DefaultWatchlist),

		MarketTimezone: getEnv("MARKET_TIMEZONE", "America/New_York"),

		QuoteCacheTTLSeconds: getEnvAsInt("QUOTE_CACHE_TTL", 60),

		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 5 16 * * 1-5"),
		Backup:           loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	// Note: ANTHROPIC_API_KEY optional - the agent cycle is skipped without it,
	// manual trading keeps working.
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	return nil
}

// loadBackupConfig loads S3 backup settings. Enabled only when both
// credential halves are present.
func loadBackupConfig() *BackupConfig {
	accessKey := getEnv("BACKUP_ACCESS_KEY_ID", "")
	secretKey := getEnv("BACKUP_SECRET_ACCESS_KEY", "")
	return &BackupConfig{
		Enabled:       accessKey != "" && secretKey != "",
		Endpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:        getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:        getEnv("BACKUP_S3_BUCKET", "tradelab-backups"),
		AccessKey:     accessKey,
		SecretKey:     secretKey,
		Schedule:      getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 14),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
