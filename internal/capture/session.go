// SPDX-License-Identifier: MIT

// Package capture acquires audio bytes for one scheduled job occurrence.
// A session owns its buffer, protocol mode and deadline; it supports direct
// progressive streams and live HLS playlists, detected from the first chunk.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/metrics"
	"github.com/halamedia/aircheck/internal/playlist"
	"github.com/halamedia/aircheck/internal/schedule"
)

// Mode is the detected capture protocol.
type Mode string

const (
	ModeUndetermined Mode = "undetermined"
	ModeDirect       Mode = "direct"
	ModeHLS          Mode = "hls"
)

const readChunkSize = 32 * 1024

// sniffLen covers an optional BOM and leading whitespace ahead of the
// playlist signature.
const sniffLen = 16

// Clock supplies the session's notion of time, injectable for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Options configures capture behavior. Zero values get defaults.
type Options struct {
	ConnectTimeout time.Duration // initial connection + response header
	SegmentTimeout time.Duration // single HLS segment or playlist fetch
	PollInterval   time.Duration // sleep between HLS playlist polls
	Client         *http.Client  // optional; built from ConnectTimeout if nil
	Clock          Clock         // optional; real clock if nil
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 15 * time.Second
	}
	if o.SegmentTimeout <= 0 {
		o.SegmentTimeout = 5 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 4 * time.Second
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	if o.Client == nil {
		o.Client = &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: o.ConnectTimeout}).DialContext,
				ResponseHeaderTimeout: o.ConnectTimeout,
			},
		}
	}
	return o
}

// Result is a finished acquisition ready for handoff.
type Result struct {
	Data []byte
	Mode Mode
}

// Session is one in-flight acquisition for a single job occurrence. It has
// a single logical owner; nothing outside its capture loop touches the
// buffer.
type Session struct {
	job      schedule.Job
	started  time.Time
	deadline time.Time
	opts     Options

	buf  bytes.Buffer
	mode Mode
}

// NewSession creates a session for one job occurrence.
func NewSession(job schedule.Job, started, deadline time.Time, opts Options) *Session {
	return &Session{
		job:      job,
		started:  started,
		deadline: deadline,
		opts:     opts.withDefaults(),
		mode:     ModeUndetermined,
	}
}

// Run acquires bytes until the deadline, upstream end or ctx cancellation,
// whichever comes first. Cancellation is the normal stop path; the buffered
// bytes are always returned for finalization. Only a failed initial
// connection is an error.
func (s *Session) Run(ctx context.Context) (Result, error) {
	logger := log.WithContext(ctx, log.WithComponent("capture"))

	// the deadline is the only normal termination path; an external stop
	// is modeled as cancellation of ctx. The remaining window is measured
	// against the injected clock so captures are simulatable.
	ctx, cancel := context.WithTimeout(ctx, s.deadline.Sub(s.opts.Clock.Now()))
	defer cancel()

	resp, err := s.open(ctx, s.job.URL)
	if err != nil {
		return Result{Mode: s.mode}, err
	}
	defer func() { _ = resp.Body.Close() }()

	// Protocol detection: sniff the leading bytes of the response. A single
	// read may legally return fewer bytes than the manifest signature, so
	// accumulate until the sniff window is covered or the stream ends.
	chunk := make([]byte, readChunkSize)
	n, readErr := resp.Body.Read(chunk)
	for readErr == nil && n < sniffLen {
		var m int
		m, readErr = resp.Body.Read(chunk[n:])
		n += m
	}

	if n > 0 && playlist.IsManifest(chunk[:n]) {
		// HLS playlist, not audio: drop the manifest bytes and switch
		// strategy with the same deadline and start time.
		s.mode = ModeHLS
		_ = resp.Body.Close()
		metrics.RecordCaptureStarted(string(ModeHLS))
		logger.Info().Str("url", s.job.URL).Msg("HLS manifest detected, switching to segment capture")
		s.runHLS(ctx)
		return Result{Data: s.buf.Bytes(), Mode: s.mode}, nil
	}

	s.mode = ModeDirect
	metrics.RecordCaptureStarted(string(ModeDirect))
	if n > 0 {
		s.buf.Write(chunk[:n])
	}
	if readErr != nil {
		if readErr != io.EOF && ctx.Err() == nil {
			logger.Warn().Err(readErr).Msg("stream ended on first read")
		}
		return Result{Data: s.buf.Bytes(), Mode: s.mode}, nil
	}

	s.runDirect(ctx, resp.Body, logger)
	return Result{Data: s.buf.Bytes(), Mode: s.mode}, nil
}

// runDirect appends chunks until the deadline fires or the upstream ends.
// A natural upstream end does not reconnect; the session finalizes with
// whatever was buffered.
func (s *Session) runDirect(ctx context.Context, body io.Reader, logger zerolog.Logger) {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			s.buf.Write(chunk[:n])
		}
		if err != nil {
			switch {
			case err == io.EOF:
				logger.Info().
					Int("buffered_bytes", s.buf.Len()).
					Msg("upstream stream ended before deadline")
			case ctx.Err() != nil:
				// deadline or stop signal, normal termination
			default:
				logger.Warn().
					Err(err).
					Int("buffered_bytes", s.buf.Len()).
					Msg("stream read failed, finalizing with buffered bytes")
			}
			return
		}
	}
}

// open connects to the capture source. Non-success responses and transport
// failures are ConnectionErrors.
func (s *Session) open(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ConnectionError{URL: url, Err: err}
	}

	resp, err := s.opts.Client.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &ConnectionError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return resp, nil
}

// Mode returns the detected protocol mode.
func (s *Session) Mode() Mode { return s.mode }

// BufferedBytes returns the current buffer length.
func (s *Session) BufferedBytes() int { return s.buf.Len() }
