// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the capture subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CapturesStartedTotal counts capture sessions started, by protocol mode.
	CapturesStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aircheck_captures_started_total",
		Help: "Total number of capture sessions started, by protocol mode.",
	}, []string{"mode"})

	// CapturesCompletedTotal counts finished sessions by outcome.
	CapturesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aircheck_captures_completed_total",
		Help: "Total number of capture sessions finished, by outcome.",
	}, []string{"outcome"})

	// CapturedBytesTotal counts audio bytes handed off to the store.
	CapturedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aircheck_captured_bytes_total",
		Help: "Total audio bytes delivered to the persistence sink.",
	})

	// ActiveSessions tracks currently running capture sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aircheck_active_sessions",
		Help: "Current number of live capture sessions.",
	})

	// SegmentFetchTotal counts HLS segment fetches by result.
	SegmentFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aircheck_hls_segment_fetch_total",
		Help: "Total HLS segment fetch attempts, by result.",
	}, []string{"result"})

	// PlaylistPollTotal counts HLS playlist polls by result.
	PlaylistPollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aircheck_hls_playlist_poll_total",
		Help: "Total HLS playlist poll attempts, by result.",
	}, []string{"result"})

	// RetentionRemovedTotal counts recordings removed by the retention sweep.
	RetentionRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aircheck_retention_removed_total",
		Help: "Total recordings removed by the retention sweep.",
	})
)

// RecordCaptureStarted increments the start counter for the given mode
// ("direct", "hls" or "undetermined").
func RecordCaptureStarted(mode string) {
	CapturesStartedTotal.WithLabelValues(mode).Inc()
}

// RecordCaptureCompleted increments the completion counter for the given
// outcome ("stored", "empty", "storage_error", "connection_error").
func RecordCaptureCompleted(outcome string) {
	CapturesCompletedTotal.WithLabelValues(outcome).Inc()
}

// RecordCapturedBytes adds delivered bytes to the byte counter.
func RecordCapturedBytes(n int) {
	CapturedBytesTotal.Add(float64(n))
}

// RecordSegmentFetch increments the segment fetch counter ("ok" or "error").
func RecordSegmentFetch(result string) {
	SegmentFetchTotal.WithLabelValues(result).Inc()
}

// RecordPlaylistPoll increments the playlist poll counter ("ok" or "error").
func RecordPlaylistPoll(result string) {
	PlaylistPollTotal.WithLabelValues(result).Inc()
}
