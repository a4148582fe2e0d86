// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halamedia/aircheck/internal/health"
	"github.com/halamedia/aircheck/internal/schedule"
	"github.com/halamedia/aircheck/internal/status"
	"github.com/halamedia/aircheck/internal/store"
	"github.com/halamedia/aircheck/internal/trigger"
)

type fakeSessions struct{ infos []trigger.SessionInfo }

func (f fakeSessions) ActiveSessions() []trigger.SessionInfo { return f.infos }

type fakeRecordings struct {
	recs  []store.Recording
	total int64
}

func (f fakeRecordings) List(context.Context) ([]store.Recording, error) { return f.recs, nil }
func (f fakeRecordings) TotalBytes(context.Context) (int64, error)       { return f.total, nil }

func newTestServer(t *testing.T) (*Server, *schedule.Registry) {
	t.Helper()
	registry, err := schedule.NewRegistry(filepath.Join(t.TempDir(), "schedules.json"))
	require.NoError(t, err)

	srv := NewServer(
		registry,
		fakeSessions{},
		fakeRecordings{
			recs: []store.Recording{{
				ID: 1, Filename: "a.mp3", StationID: "2", StationName: "Hala FM",
				DurationSec: 600, SizeBytes: 1000, CreatedAt: time.Now().UTC(),
			}},
			total: 1000,
		},
		status.NewLog(50),
		health.NewManager("test"),
	)
	return srv, registry
}

func doRequest(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doRequest(t, srv.Router(), "GET", "/ping", nil)
	assert.Equal(t, 200, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, 200, doRequest(t, srv.Router(), "GET", "/healthz", nil).Code)
	assert.Equal(t, 200, doRequest(t, srv.Router(), "GET", "/readyz", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doRequest(t, srv.Router(), "GET", "/metrics", nil)
	assert.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestSchedules_AddListRemove(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	spec := map[string]any{
		"name":      "Evening Show",
		"stationId": "2",
		"url":       "https://stream.example/;",
		"time":      "19:00",
		"days":      []int{0, 1, 2, 3, 4, 5, 6},
		"duration":  600,
	}
	body, _ := json.Marshal(spec)

	rr := doRequest(t, router, "POST", "/api/schedules", body)
	require.Equal(t, 201, rr.Code, rr.Body.String())
	var created schedule.Job
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)
	assert.False(t, created.Locked)

	rr = doRequest(t, router, "GET", "/api/schedules", nil)
	require.Equal(t, 200, rr.Code)
	var jobs []schedule.Job
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)

	rr = doRequest(t, router, "DELETE", "/api/schedules/"+created.ID, nil)
	assert.Equal(t, 204, rr.Code)

	rr = doRequest(t, router, "DELETE", "/api/schedules/"+created.ID, nil)
	assert.Equal(t, 404, rr.Code)
}

func TestSchedules_AddRejectsInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"name": "X"})
	rr := doRequest(t, srv.Router(), "POST", "/api/schedules", body)
	assert.Equal(t, 400, rr.Code)

	rr = doRequest(t, srv.Router(), "POST", "/api/schedules", []byte("{broken"))
	assert.Equal(t, 400, rr.Code)
}

func TestSchedules_DeleteLockedForbidden(t *testing.T) {
	srv, registry := newTestServer(t)
	sys := schedule.Job{
		ID: "sys-1", Name: "System Job", StationID: "8",
		URL: "https://live.example/x.m3u8", Time: "13:59",
		Days: []int{0, 1, 2, 3, 4, 5, 6}, DurationSec: 1860, Enabled: true,
	}
	require.NoError(t, registry.Seed([]schedule.Job{sys}))

	rr := doRequest(t, srv.Router(), "DELETE", "/api/schedules/sys-1", nil)
	assert.Equal(t, 403, rr.Code)
}

func TestSchedules_Toggle(t *testing.T) {
	srv, registry := newTestServer(t)
	job, err := registry.Add(schedule.Job{
		Name: "T", StationID: "1", URL: "http://x/", Time: "12:00",
		Days: []int{1}, DurationSec: 60, Enabled: true,
	})
	require.NoError(t, err)

	rr := doRequest(t, srv.Router(), "POST", "/api/schedules/"+job.ID+"/toggle", nil)
	require.Equal(t, 200, rr.Code)
	var toggled schedule.Job
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &toggled))
	assert.False(t, toggled.Enabled)

	rr = doRequest(t, srv.Router(), "POST", "/api/schedules/ghost/toggle", nil)
	assert.Equal(t, 404, rr.Code)
}

func TestRecorderLogs(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.statusLog.Infof("recording started: %s", "Hala FM")

	rr := doRequest(t, srv.Router(), "GET", "/api/recorder-logs", nil)
	require.Equal(t, 200, rr.Code)

	var resp recorderStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 1)
	assert.Contains(t, resp.Logs[0].Message, "Hala FM")
}

func TestListRecordings(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doRequest(t, srv.Router(), "GET", "/api/recordings", nil)
	require.Equal(t, 200, rr.Code)

	var resp recordingsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Recordings, 1)
	assert.Equal(t, "Hala FM", resp.Recordings[0].StationName)
	assert.Equal(t, int64(1000), resp.TotalBytes)
}
