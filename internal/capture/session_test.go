// SPDX-License-Identifier: MIT

package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halamedia/aircheck/internal/schedule"
)

func captureJob(url string) schedule.Job {
	return schedule.Job{
		ID:          "j1",
		Name:        "Test Show",
		StationID:   "st-1",
		URL:         url,
		Time:        "13:00",
		Days:        []int{0, 1, 2, 3, 4, 5, 6},
		DurationSec: 1800,
		Enabled:     true,
	}
}

func shortOpts() Options {
	return Options{
		ConnectTimeout: 2 * time.Second,
		SegmentTimeout: 2 * time.Second,
		PollInterval:   25 * time.Millisecond,
	}
}

func TestSession_DirectCaptureUntilUpstreamEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("chunk-one-"))
		_, _ = w.Write([]byte("chunk-two"))
	}))
	defer srv.Close()

	now := time.Now()
	sess := NewSession(captureJob(srv.URL), now, now.Add(time.Hour), shortOpts())

	res, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, res.Mode)
	assert.Equal(t, "chunk-one-chunk-two", string(res.Data))
}

func TestSession_DirectCaptureStopsAtDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for {
			if _, err := w.Write([]byte("audio")); err != nil {
				return
			}
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
	}))
	defer srv.Close()

	now := time.Now()
	sess := NewSession(captureJob(srv.URL), now, now.Add(150*time.Millisecond), shortOpts())

	start := time.Now()
	res, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, res.Mode)
	assert.NotEmpty(t, res.Data)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSession_DirectCaptureStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("some-audio"))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	now := time.Now()
	sess := NewSession(captureJob(srv.URL), now, now.Add(time.Hour), shortOpts())

	res, err := sess.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "some-audio", string(res.Data))
}

func TestSession_ConnectionErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	now := time.Now()
	sess := NewSession(captureJob(srv.URL), now, now.Add(time.Hour), shortOpts())

	_, err := sess.Run(context.Background())
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestSession_ConnectionErrorOnRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	now := time.Now()
	sess := NewSession(captureJob(srv.URL), now, now.Add(time.Hour), shortOpts())

	_, err := sess.Run(context.Background())
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestSession_EmptyUpstreamYieldsEmptyBuffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	now := time.Now()
	sess := NewSession(captureJob(srv.URL), now, now.Add(time.Hour), shortOpts())

	res, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestSession_DetectsManifestSplitAcrossReads(t *testing.T) {
	seg := []byte("SEGMENT-AUDIO")

	mux := http.NewServeMux()
	mux.HandleFunc("/live.m3u8", func(w http.ResponseWriter, r *http.Request) {
		// deliver the signature in two short writes
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("#EXT"))
		flusher.Flush()
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("M3U\n#EXTINF:6.0,\nseg.ts\n"))
	})
	mux.HandleFunc("/seg.ts", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(seg) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	now := time.Now()
	sess := NewSession(captureJob(srv.URL+"/live.m3u8"), now, now.Add(150*time.Millisecond), shortOpts())

	res, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeHLS, res.Mode)
	assert.Equal(t, string(seg), string(res.Data))
}

func TestSession_ReclassifiesManifestResponseAsHLS(t *testing.T) {
	seg1 := []byte("SEGMENT-ONE-AUDIO")
	seg2 := []byte("SEGMENT-TWO-AUDIO")

	mux := http.NewServeMux()
	mux.HandleFunc("/live.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:6.0,\nseg1.ts\n#EXTINF:6.0,\nseg2.ts\n"))
	})
	mux.HandleFunc("/seg1.ts", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(seg1) })
	mux.HandleFunc("/seg2.ts", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(seg2) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	now := time.Now()
	sess := NewSession(captureJob(srv.URL+"/live.m3u8"), now, now.Add(120*time.Millisecond), shortOpts())

	res, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeHLS, res.Mode)
	// buffer holds exactly the segment bytes, no manifest text leaked
	assert.Equal(t, string(seg1)+string(seg2), string(res.Data))
	assert.NotContains(t, string(res.Data), "#EXTM3U")
}
