// SPDX-License-Identifier: MIT

// Package schedule holds the capture job model and the persisted job registry.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Job describes one scheduled capture: when to start, what to capture and
// for how long. Jobs are immutable once stored; edits go through the
// registry, which re-serializes the whole set.
type Job struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StationID   string    `json:"stationId"`
	URL         string    `json:"url"`
	Time        string    `json:"time"` // "HH:MM", 24h, local time
	Days        []int     `json:"days"` // 0=Sunday .. 6=Saturday
	DurationSec int       `json:"duration"`
	Enabled     bool      `json:"enabled"`
	Locked      bool      `json:"isLocked"` // system-managed, not user-deletable
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Duration returns the capture window length.
func (j Job) Duration() time.Duration {
	return time.Duration(j.DurationSec) * time.Second
}

// TriggerTime parses the job's "HH:MM" trigger point.
func (j Job) TriggerTime() (hour, minute int, err error) {
	return parseClock(j.Time)
}

// MatchesDay reports whether the job is eligible on the given weekday.
func (j Job) MatchesDay(day time.Weekday) bool {
	for _, d := range j.Days {
		if d == int(day) {
			return true
		}
	}
	return false
}

// Validate checks a job specification before it enters the registry.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return fmt.Errorf("job name must not be empty")
	}
	if strings.TrimSpace(j.StationID) == "" {
		return fmt.Errorf("job %q: station is required", j.Name)
	}
	if strings.TrimSpace(j.URL) == "" {
		return fmt.Errorf("job %q: url is required", j.Name)
	}
	if _, _, err := parseClock(j.Time); err != nil {
		return fmt.Errorf("job %q: %w", j.Name, err)
	}
	if len(j.Days) == 0 {
		return fmt.Errorf("job %q: at least one weekday is required", j.Name)
	}
	for _, d := range j.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("job %q: weekday %d out of range [0,6]", j.Name, d)
		}
	}
	if j.DurationSec <= 0 {
		return fmt.Errorf("job %q: duration must be positive, got %d", j.Name, j.DurationSec)
	}
	return nil
}

// parseClock parses a strict 24h "HH:MM" value.
func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed time %q: bad hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed time %q: bad minute", s)
	}
	return hour, minute, nil
}
