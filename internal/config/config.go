package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/pool"
	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	// RedisURL is optional. When set, quota counters live in Redis so
	// multiple replicas share one daily budget; otherwise they are
	// in-process.
	RedisURL string `env:"REDIS_URL"`

	// MailAccountsJSON is a JSON array of sending account definitions.
	MailAccountsJSON     string `env:"MAIL_ACCOUNTS"`
	WorkspaceDomain      string `env:"WORKSPACE_DOMAIN"`
	StandardDailyQuota   int    `env:"STANDARD_DAILY_QUOTA,default=500"`
	HighVolumeDailyQuota int    `env:"HIGH_VOLUME_DAILY_QUOTA,default=2000"`

	// Relay settings are optional; without them the orchestrator has no
	// overflow path and exhaustion is terminal.
	RelayURL    string `env:"RELAY_API_URL"`
	RelayAPIKey string `env:"RELAY_API_KEY"`
	RelayFrom   string `env:"RELAY_FROM"`

	BulkDelayMillis      int    `env:"BULK_DELAY_MS,default=5000"`
	WaveScanIntervalSecs int    `env:"WAVE_SCAN_INTERVAL_SEC,default=15"`
	WaveScanLimit        int    `env:"WAVE_SCAN_LIMIT,default=20"`
	Timezone             string `env:"TIMEZONE,default=Local"`

	APIPort     int    `env:"API_PORT,default=8080"`
	MetricsPort int    `env:"METRICS_PORT,default=9090"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// MailAccounts decodes the configured sending accounts. An empty variable
// yields an empty slice, not an error; the pool decides how to degrade.
func (c *Config) MailAccounts() ([]pool.AccountConfig, error) {
	if c.MailAccountsJSON == "" {
		return nil, nil
	}

	var accounts []pool.AccountConfig
	if err := json.Unmarshal([]byte(c.MailAccountsJSON), &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse MAIL_ACCOUNTS: %w", err)
	}
	return accounts, nil
}

// Location resolves the timezone used for the daily quota reset boundary.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) BulkDelay() time.Duration {
	if c.BulkDelayMillis < 0 {
		return 0
	}
	return time.Duration(c.BulkDelayMillis) * time.Millisecond
}

func (c *Config) WaveScanInterval() time.Duration {
	return time.Duration(c.WaveScanIntervalSecs) * time.Second
}
