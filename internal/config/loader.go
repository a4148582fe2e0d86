// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
}

// NewLoader creates a loader. configPath may be empty, in which case only
// defaults and environment variables are consulted.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load loads the configuration: defaults, then the YAML file (if any), then
// environment overrides, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// missing file is fine, env + defaults apply
		case err != nil:
			return AppConfig{}, fmt.Errorf("read config file %s: %w", l.configPath, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return AppConfig{}, fmt.Errorf("parse config file %s: %w", l.configPath, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	cfg.DataDir = ParseString("AIRCHECK_DATA", cfg.DataDir)
	cfg.ListenAddr = ParseString("AIRCHECK_LISTEN", cfg.ListenAddr)
	cfg.Timezone = ParseString("AIRCHECK_TZ", cfg.Timezone)
	cfg.TickInterval = ParseDuration("AIRCHECK_TICK_INTERVAL", cfg.TickInterval)
	cfg.ConnectTimeout = ParseDuration("AIRCHECK_CONNECT_TIMEOUT", cfg.ConnectTimeout)
	cfg.SegmentTimeout = ParseDuration("AIRCHECK_SEGMENT_TIMEOUT", cfg.SegmentTimeout)
	cfg.PlaylistPollInterval = ParseDuration("AIRCHECK_HLS_POLL_INTERVAL", cfg.PlaylistPollInterval)
	cfg.RetentionDays = ParseInt("AIRCHECK_RETENTION_DAYS", cfg.RetentionDays)
	cfg.RetentionHour = ParseInt("AIRCHECK_RETENTION_HOUR", cfg.RetentionHour)
	cfg.LogLevel = ParseString("AIRCHECK_LOG_LEVEL", cfg.LogLevel)
	cfg.StatusLogCap = ParseInt("AIRCHECK_STATUS_LOG_CAP", cfg.StatusLogCap)
}
