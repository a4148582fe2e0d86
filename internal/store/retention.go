// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/metrics"
)

// StatusSink receives human-readable retention events.
type StatusSink interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Retention removes recordings older than a fixed number of days. It runs
// once at startup and then daily at the configured local hour. Not part of
// the capture hot path.
type Retention struct {
	sweeper Sweeper
	days    int
	hour    int
	now     func() time.Time
	status  StatusSink
}

// NewRetention creates a Retention sweep. days <= 0 disables it.
func NewRetention(sweeper Sweeper, days, hour int, now func() time.Time, status StatusSink) *Retention {
	return &Retention{sweeper: sweeper, days: days, hour: hour, now: now, status: status}
}

// Run sweeps at startup and then daily until ctx is done.
func (r *Retention) Run(ctx context.Context) error {
	if r.days <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	logger := log.WithComponent("retention")

	if err := r.SweepOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("startup retention sweep failed")
	}

	for {
		wait := r.untilNextRun()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			if err := r.SweepOnce(ctx); err != nil {
				logger.Error().Err(err).Msg("retention sweep failed")
			}
		}
	}
}

// SweepOnce removes everything older than the retention cutoff.
func (r *Retention) SweepOnce(ctx context.Context) error {
	logger := log.WithComponent("retention")
	cutoff := r.now().AddDate(0, 0, -r.days)

	old, err := r.sweeper.ListOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list recordings older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if len(old) == 0 {
		logger.Debug().Time("cutoff", cutoff).Msg("retention sweep found nothing to remove")
		return nil
	}

	if err := r.sweeper.RemoveAll(ctx, old); err != nil {
		if r.status != nil {
			r.status.Errorf("retention sweep failed: %v", err)
		}
		return fmt.Errorf("remove %d old recordings: %w", len(old), err)
	}

	metrics.RetentionRemovedTotal.Add(float64(len(old)))
	logger.Info().
		Int("removed", len(old)).
		Time("cutoff", cutoff).
		Msg("retention sweep removed old recordings")
	if r.status != nil {
		r.status.Infof("auto-cleanup removed %d recordings older than %d days", len(old), r.days)
	}
	return nil
}

// untilNextRun computes the wait until the next daily sweep hour.
func (r *Retention) untilNextRun() time.Duration {
	now := r.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
