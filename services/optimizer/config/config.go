package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultListenAddress       = "0.0.0.0:8080"
	defaultSnapshotsDBPath     = "db/snapshots.db"
	defaultNerdGraphURL        = "https://api.newrelic.com/graphql"
	defaultSettingsBaseURL     = "https://rpm.newrelic.com"
	defaultQueryTimeout        = 30
	defaultCycleTimeout        = 300
	defaultTimeWindowInMinutes = 60
	defaultSuggestedPercentile = 90
	defaultMaxEntityPages      = 1000
	defaultMaxConcurrent       = 4
	defaultSnapshotRetention   = 7 * 24 * 3600
)

// Config maps to the config.toml file for the apdex optimizer service
type Config struct {
	ListenAddress              string `toml:"ListenAddress"`
	NerdGraphURL               string `toml:"NerdGraphURL"`
	SettingsBaseURL            string `toml:"SettingsBaseURL"`
	QueryTimeoutInSeconds      uint32 `toml:"QueryTimeoutInSeconds"`
	CycleTimeoutInSeconds      uint32 `toml:"CycleTimeoutInSeconds"`
	RefreshIntervalInSeconds   uint32 `toml:"RefreshIntervalInSeconds"`
	DefaultTimeWindowInMinutes uint32 `toml:"DefaultTimeWindowInMinutes"`
	SuggestedPercentile        uint32 `toml:"SuggestedPercentile"`
	MaxEntityPages             int    `toml:"MaxEntityPages"`
	MaxConcurrentQueries       int    `toml:"MaxConcurrentQueries"`
	DefaultAccountID           int64  `toml:"DefaultAccountID"`
	SnapshotsDBPath            string `toml:"SnapshotsDBPath"`
	SnapshotRetentionSeconds   int    `toml:"SnapshotRetentionSeconds"`
	StaticDir                  string `toml:"StaticDir"`
}

// LoadConfig parses a TOML file into the Config struct and fills the missing values with defaults
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, cfg.Validate()
}

// ApplyDefaults sets the default values for all the unset fields
func (cfg *Config) ApplyDefaults() {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListenAddress
	}
	if cfg.SnapshotsDBPath == "" {
		cfg.SnapshotsDBPath = defaultSnapshotsDBPath
	}
	if cfg.NerdGraphURL == "" {
		cfg.NerdGraphURL = defaultNerdGraphURL
	}
	if cfg.SettingsBaseURL == "" {
		cfg.SettingsBaseURL = defaultSettingsBaseURL
	}
	if cfg.QueryTimeoutInSeconds == 0 {
		cfg.QueryTimeoutInSeconds = defaultQueryTimeout
	}
	if cfg.CycleTimeoutInSeconds == 0 {
		cfg.CycleTimeoutInSeconds = defaultCycleTimeout
	}
	if cfg.DefaultTimeWindowInMinutes == 0 {
		cfg.DefaultTimeWindowInMinutes = defaultTimeWindowInMinutes
	}
	if cfg.SuggestedPercentile == 0 {
		cfg.SuggestedPercentile = defaultSuggestedPercentile
	}
	if cfg.MaxEntityPages <= 0 {
		cfg.MaxEntityPages = defaultMaxEntityPages
	}
	if cfg.MaxConcurrentQueries <= 0 {
		cfg.MaxConcurrentQueries = defaultMaxConcurrent
	}
	if cfg.SnapshotRetentionSeconds <= 0 {
		cfg.SnapshotRetentionSeconds = defaultSnapshotRetention
	}
}

// Validate checks the values that can not be defaulted
func (cfg *Config) Validate() error {
	if cfg.SuggestedPercentile > 100 {
		return fmt.Errorf("invalid SuggestedPercentile %d, should be in (0, 100]", cfg.SuggestedPercentile)
	}
	if cfg.DefaultAccountID < 0 {
		return fmt.Errorf("invalid DefaultAccountID %d", cfg.DefaultAccountID)
	}

	return nil
}
