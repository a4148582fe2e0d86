// SPDX-License-Identifier: MIT

package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/metrics"
	"github.com/halamedia/aircheck/internal/playlist"
)

// runHLS polls the playlist and appends each new segment to the session
// buffer until the deadline. Live playlists are sliding windows; the seen
// set keeps refreshed listings from re-downloading segments. Playlist and
// segment failures never terminate the loop early.
func (s *Session) runHLS(ctx context.Context) {
	logger := log.WithContext(ctx, log.WithComponent("hls"))

	base, err := url.Parse(s.job.URL)
	if err != nil {
		logger.Error().Err(err).Str("url", s.job.URL).Msg("unparseable playlist URL")
		return
	}

	seen := make(map[string]struct{})

	for s.opts.Clock.Now().Before(s.deadline) {
		if ctx.Err() != nil {
			return
		}

		doc, err := s.fetch(ctx, s.job.URL)
		if err != nil {
			metrics.RecordPlaylistPoll("error")
			logger.Warn().Err(err).Msg("playlist poll failed, retrying next interval")
			if !s.sleep(ctx) {
				return
			}
			continue
		}
		metrics.RecordPlaylistPoll("ok")

		segments, err := playlist.ParseSegments(string(doc), base)
		if err != nil {
			perr := &ProtocolError{URL: s.job.URL, Err: err}
			logger.Warn().Err(perr).Msg("malformed playlist, skipping poll iteration")
			if !s.sleep(ctx) {
				return
			}
			continue
		}

		for _, seg := range segments {
			if !s.opts.Clock.Now().Before(s.deadline) || ctx.Err() != nil {
				return
			}
			if _, dup := seen[seg.Ref]; dup {
				continue
			}

			data, err := s.fetch(ctx, seg.URL)
			if err != nil {
				// swallowed: the segment stays out of the seen set and is
				// retried on the next playlist poll
				metrics.RecordSegmentFetch("error")
				serr := &SegmentError{Ref: seg.Ref, Err: err}
				logger.Warn().Err(serr).Msg("segment fetch failed, will retry next poll")
				continue
			}
			metrics.RecordSegmentFetch("ok")

			s.buf.Write(data)
			seen[seg.Ref] = struct{}{}
			logger.Debug().
				Str("segment", seg.Ref).
				Int("segment_bytes", len(data)).
				Int("buffered_bytes", s.buf.Len()).
				Msg("segment appended")
		}

		if !s.sleep(ctx) {
			return
		}
	}
}

// fetch GETs a playlist or segment with the short per-request timeout.
func (s *Session) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.SegmentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// sleep waits one poll interval. It returns false if ctx ended first.
func (s *Session) sleep(ctx context.Context) bool {
	if !s.opts.Clock.Now().Before(s.deadline) {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.opts.PollInterval):
		return true
	}
}
