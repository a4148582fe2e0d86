// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"empty data dir", func(c *AppConfig) { c.DataDir = "" }},
		{"zero tick", func(c *AppConfig) { c.TickInterval = 0 }},
		{"tick too long", func(c *AppConfig) { c.TickInterval = time.Minute }},
		{"zero connect timeout", func(c *AppConfig) { c.ConnectTimeout = 0 }},
		{"zero segment timeout", func(c *AppConfig) { c.SegmentTimeout = 0 }},
		{"zero poll interval", func(c *AppConfig) { c.PlaylistPollInterval = 0 }},
		{"negative retention", func(c *AppConfig) { c.RetentionDays = -1 }},
		{"retention hour out of range", func(c *AppConfig) { c.RetentionHour = 24 }},
		{"zero status cap", func(c *AppConfig) { c.StatusLogCap = 0 }},
		{"bad timezone", func(c *AppConfig) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoader_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"dataDir: /srv/recordings\nretentionDays: 14\ntickInterval: 10s\n",
	), 0o600))

	t.Setenv("AIRCHECK_RETENTION_DAYS", "7")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	// file overrides defaults
	assert.Equal(t, "/srv/recordings", cfg.DataDir)
	assert.Equal(t, 10*time.Second, cfg.TickInterval)
	// env overrides file
	assert.Equal(t, 7, cfg.RetentionDays)
	// untouched values keep defaults
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().DataDir, cfg.DataDir)
}

func TestLoader_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataDir: [broken"), 0o600))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestParseDuration_FallbackOnGarbage(t *testing.T) {
	t.Setenv("AIRCHECK_TEST_DUR", "not-a-duration")
	assert.Equal(t, 5*time.Second, ParseDuration("AIRCHECK_TEST_DUR", 5*time.Second))
}
