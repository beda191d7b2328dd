package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	testString := `
ListenAddress = "0.0.0.0:8080"
NerdGraphURL = "https://api.eu.newrelic.com/graphql"
SettingsBaseURL = "https://rpm.eu.newrelic.com"
QueryTimeoutInSeconds = 20
CycleTimeoutInSeconds = 120
RefreshIntervalInSeconds = 600
DefaultTimeWindowInMinutes = 10080
SuggestedPercentile = 90
MaxEntityPages = 50
MaxConcurrentQueries = 6
DefaultAccountID = 1234567
SnapshotsDBPath = "db/snapshots.db"
SnapshotRetentionSeconds = 86400
StaticDir = ""
`

	expectedCfg := Config{
		ListenAddress:              "0.0.0.0:8080",
		NerdGraphURL:               "https://api.eu.newrelic.com/graphql",
		SettingsBaseURL:            "https://rpm.eu.newrelic.com",
		QueryTimeoutInSeconds:      20,
		CycleTimeoutInSeconds:      120,
		RefreshIntervalInSeconds:   600,
		DefaultTimeWindowInMinutes: 10080,
		SuggestedPercentile:        90,
		MaxEntityPages:             50,
		MaxConcurrentQueries:       6,
		DefaultAccountID:           1234567,
		SnapshotsDBPath:            "db/snapshots.db",
		SnapshotRetentionSeconds:   86400,
	}

	cfg := Config{}

	err := toml.Unmarshal([]byte(testString), &cfg)
	assert.Nil(t, err)
	assert.Equal(t, expectedCfg, cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("missing file should error", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Nil(t, cfg)
		assert.Error(t, err)
	})
	t.Run("defaults are applied", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		err := os.WriteFile(path, []byte(`ListenAddress = "127.0.0.1:0"`), 0600)
		require.NoError(t, err)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:0", cfg.ListenAddress)
		assert.Equal(t, defaultNerdGraphURL, cfg.NerdGraphURL)
		assert.Equal(t, defaultSettingsBaseURL, cfg.SettingsBaseURL)
		assert.Equal(t, uint32(defaultSuggestedPercentile), cfg.SuggestedPercentile)
		assert.Equal(t, defaultMaxConcurrent, cfg.MaxConcurrentQueries)
		assert.Equal(t, uint32(0), cfg.RefreshIntervalInSeconds)
	})
	t.Run("invalid percentile should error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		err := os.WriteFile(path, []byte(`SuggestedPercentile = 101`), 0600)
		require.NoError(t, err)

		_, err = LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SuggestedPercentile")
	})
}
