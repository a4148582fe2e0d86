// SPDX-License-Identifier: MIT

package capture

import (
	"context"
	"time"

	"github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/metrics"
	"github.com/halamedia/aircheck/internal/schedule"
	"github.com/halamedia/aircheck/internal/store"
)

// StatusSink receives human-readable recorder events; status.Log satisfies it.
type StatusSink interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Recorder runs capture sessions and hands finished buffers to the
// persistence sink exactly once. It implements the trigger engine's Runner.
type Recorder struct {
	sink   store.Sink
	status StatusSink
	opts   Options
}

// NewRecorder creates a Recorder delivering to sink.
func NewRecorder(sink store.Sink, status StatusSink, opts Options) *Recorder {
	return &Recorder{sink: sink, status: status, opts: opts.withDefaults()}
}

// Run captures one job occurrence and finalizes it. All failures are
// contained here; nothing propagates back to the trigger engine.
func (r *Recorder) Run(ctx context.Context, job schedule.Job, started, deadline time.Time) {
	ctx = log.ContextWithJobID(ctx, job.ID)
	logger := log.WithContext(ctx, log.WithComponent("recorder"))

	logger.Info().
		Str("job_name", job.Name).
		Str("url", job.URL).
		Time("deadline", deadline).
		Msg("recording started")
	r.status.Infof("recording started: %s", job.Name)

	sess := NewSession(job, started, deadline, r.opts)
	res, err := sess.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Str("job_name", job.Name).Msg("capture connection failed")
		r.status.Errorf("recording %s failed: %v", job.Name, err)
		if len(res.Data) == 0 {
			metrics.RecordCaptureCompleted("connection_error")
			return
		}
	}

	elapsed := int(r.opts.Clock.Now().Sub(started) / time.Second)

	if len(res.Data) == 0 {
		logger.Error().
			Str("job_name", job.Name).
			Int("elapsed_seconds", elapsed).
			Msg("capture ended with zero bytes, nothing to deliver")
		r.status.Errorf("recording %s produced no audio: %v", job.Name, ErrEmptyCapture)
		metrics.RecordCaptureCompleted("empty")
		return
	}

	filename := Filename(job.Name, started)
	meta := store.Metadata{
		StationID:   job.StationID,
		StationName: job.Name,
		DurationSec: elapsed,
		SizeBytes:   int64(len(res.Data)),
		Timestamp:   started,
	}

	// delivery must run even though the session context has reached its
	// deadline by now
	if _, err := r.sink.Store(context.WithoutCancel(ctx), res.Data, filename, meta); err != nil {
		serr := &StorageError{Filename: filename, Err: err}
		logger.Error().Err(serr).Str("job_name", job.Name).Msg("delivery to persistence sink failed")
		r.status.Errorf("storing %s failed: %v", filename, err)
		metrics.RecordCaptureCompleted("storage_error")
		return
	}

	metrics.RecordCaptureCompleted("stored")
	metrics.RecordCapturedBytes(len(res.Data))
	logger.Info().
		Str("job_name", job.Name).
		Str("filename", filename).
		Str("mode", string(res.Mode)).
		Int("size_bytes", len(res.Data)).
		Int("duration_seconds", elapsed).
		Msg("recording finished and stored")
	r.status.Infof("recording finished: %s (%d bytes, %ds)", filename, len(res.Data), elapsed)
}
