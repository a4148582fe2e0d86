// SPDX-License-Identifier: MIT

// Package config loads daemon configuration with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"time"
)

// AppConfig holds the full daemon configuration.
type AppConfig struct {
	// DataDir is the root directory for recordings, the schedule registry
	// file and the metadata database.
	DataDir string `yaml:"dataDir"`

	// ListenAddr is the HTTP listen address for the API surface.
	ListenAddr string `yaml:"listen"`

	// Timezone is the IANA zone name used for schedule matching.
	Timezone string `yaml:"timezone"`

	// TickInterval is the trigger engine poll interval. Must be below one
	// minute or triggers can be skipped.
	TickInterval time.Duration `yaml:"tickInterval"`

	// ConnectTimeout bounds the initial connection to a capture source.
	ConnectTimeout time.Duration `yaml:"connectTimeout"`

	// SegmentTimeout bounds a single HLS segment fetch.
	SegmentTimeout time.Duration `yaml:"segmentTimeout"`

	// PlaylistPollInterval is the sleep between HLS playlist refetches.
	PlaylistPollInterval time.Duration `yaml:"playlistPollInterval"`

	// RetentionDays is the age cutoff for the daily recording sweep.
	// Zero disables the sweep.
	RetentionDays int `yaml:"retentionDays"`

	// RetentionHour is the local hour (0-23) of the daily sweep.
	RetentionHour int `yaml:"retentionHour"`

	// LogLevel is the zerolog level name.
	LogLevel string `yaml:"logLevel"`

	// StatusLogCap bounds the in-memory recorder event log.
	StatusLogCap int `yaml:"statusLogCap"`
}

// Default returns the built-in configuration defaults.
func Default() AppConfig {
	return AppConfig{
		DataDir:              "/data/aircheck",
		ListenAddr:           ":8080",
		Timezone:             "Local",
		TickInterval:         15 * time.Second,
		ConnectTimeout:       15 * time.Second,
		SegmentTimeout:       5 * time.Second,
		PlaylistPollInterval: 4 * time.Second,
		RetentionDays:        30,
		RetentionHour:        3,
		LogLevel:             "info",
		StatusLogCap:         50,
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c AppConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if c.TickInterval <= 0 || c.TickInterval >= time.Minute {
		return fmt.Errorf("tickInterval must be in (0, 1m), got %s", c.TickInterval)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connectTimeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.SegmentTimeout <= 0 {
		return fmt.Errorf("segmentTimeout must be positive, got %s", c.SegmentTimeout)
	}
	if c.PlaylistPollInterval <= 0 {
		return fmt.Errorf("playlistPollInterval must be positive, got %s", c.PlaylistPollInterval)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retentionDays must be >= 0, got %d", c.RetentionDays)
	}
	if c.RetentionHour < 0 || c.RetentionHour > 23 {
		return fmt.Errorf("retentionHour must be in [0,23], got %d", c.RetentionHour)
	}
	if c.StatusLogCap <= 0 {
		return fmt.Errorf("statusLogCap must be positive, got %d", c.StatusLogCap)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
