// SPDX-License-Identifier: MIT

// Package trigger polls the wall clock against the job registry and starts
// and stops capture sessions. Triggering is idempotent per wall-clock minute
// and at most one session is live per job ID.
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/metrics"
	"github.com/halamedia/aircheck/internal/schedule"
)

// Clock supplies the engine's notion of current local time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}

// JobSource provides the jobs to evaluate. Reads must return a consistent
// snapshot; schedule.Registry satisfies this.
type JobSource interface {
	List() []schedule.Job
}

// Runner executes one capture session synchronously. The engine invokes it
// on its own goroutine; it must honor ctx cancellation, which the engine
// uses as the "deadline is now" stop signal.
type Runner interface {
	Run(ctx context.Context, job schedule.Job, started, deadline time.Time)
}

// SessionInfo describes one live session for external inspection.
type SessionInfo struct {
	JobID    string    `json:"jobId"`
	JobName  string    `json:"jobName"`
	Started  time.Time `json:"started"`
	Deadline time.Time `json:"deadline"`
}

type liveSession struct {
	job      schedule.Job
	started  time.Time
	deadline time.Time
	cancel   context.CancelFunc
}

// Engine drives trigger evaluation on a fixed tick.
type Engine struct {
	source JobSource
	runner Runner
	clock  Clock
	tick   time.Duration

	mu          sync.Mutex
	live        map[string]*liveSession
	lastTimeKey string
}

// New creates an Engine. tick must be below one minute so no trigger
// minute is skipped.
func New(source JobSource, runner Runner, clock Clock, tick time.Duration) *Engine {
	return &Engine{
		source: source,
		runner: runner,
		clock:  clock,
		tick:   tick,
		live:   make(map[string]*liveSession),
	}
}

// Run evaluates triggers until ctx is done. One evaluation completes fully
// before the next begins.
func (e *Engine) Run(ctx context.Context) error {
	logger := log.WithComponent("trigger")
	logger.Info().
		Dur("tick", e.tick).
		Msg("trigger engine started")

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	// evaluate immediately so a restart inside a trigger minute still fires
	e.evaluate(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("trigger engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.evaluate(ctx)
		}
	}
}

// evaluate runs one tick: start matching jobs at most once per minute and
// stop sessions whose window has elapsed. It never panics out; a failing
// job must not block the remaining jobs in the same tick.
func (e *Engine) evaluate(ctx context.Context) {
	now := e.clock.Now()
	key := now.Format("15:04")

	e.mu.Lock()
	fireMinute := key != e.lastTimeKey
	if fireMinute {
		e.lastTimeKey = key
	}
	e.mu.Unlock()

	if fireMinute {
		for _, job := range e.source.List() {
			e.maybeStart(ctx, job, now)
		}
	}

	e.stopElapsed(now)
}

func (e *Engine) maybeStart(ctx context.Context, job schedule.Job, now time.Time) {
	logger := log.WithComponent("trigger")

	if !job.Enabled {
		return
	}
	hour, minute, err := job.TriggerTime()
	if err != nil {
		logger.Error().Err(err).Str("job_id", job.ID).Msg("job has malformed trigger time")
		return
	}
	if now.Hour() != hour || now.Minute() != minute || !job.MatchesDay(now.Weekday()) {
		return
	}

	e.mu.Lock()
	if _, running := e.live[job.ID]; running {
		e.mu.Unlock()
		logger.Warn().
			Str("job_id", job.ID).
			Str("job_name", job.Name).
			Msg("session already live for job, skipping trigger")
		return
	}

	deadline := now.Add(job.Duration())
	sessCtx, cancel := context.WithCancel(ctx)
	e.live[job.ID] = &liveSession{
		job:      job,
		started:  now,
		deadline: deadline,
		cancel:   cancel,
	}
	e.mu.Unlock()

	metrics.ActiveSessions.Inc()
	logger.Info().
		Str("job_id", job.ID).
		Str("job_name", job.Name).
		Time("deadline", deadline).
		Msg("trigger fired, starting capture session")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("job_id", job.ID).
					Interface("panic", r).
					Msg("capture session panicked")
			}
			cancel()
			e.mu.Lock()
			delete(e.live, job.ID)
			e.mu.Unlock()
			metrics.ActiveSessions.Dec()
		}()
		e.runner.Run(sessCtx, job, now, deadline)
	}()
}

// stopElapsed cancels sessions whose capture window has elapsed. The
// session's own finalize path runs on cancellation.
func (e *Engine) stopElapsed(now time.Time) {
	logger := log.WithComponent("trigger")

	e.mu.Lock()
	var expired []*liveSession
	for _, s := range e.live {
		if now.Sub(s.started) >= s.job.Duration() {
			expired = append(expired, s)
		}
	}
	e.mu.Unlock()

	for _, s := range expired {
		logger.Info().
			Str("job_id", s.job.ID).
			Str("job_name", s.job.Name).
			Msg("capture window elapsed, stopping session")
		s.cancel()
	}
}

// ActiveSessions returns a snapshot of the live sessions.
func (e *Engine) ActiveSessions() []SessionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]SessionInfo, 0, len(e.live))
	for _, s := range e.live {
		out = append(out, SessionInfo{
			JobID:    s.job.ID,
			JobName:  s.job.Name,
			Started:  s.started,
			Deadline: s.deadline,
		})
	}
	return out
}
