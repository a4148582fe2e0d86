// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/schedule"
	"github.com/halamedia/aircheck/internal/status"
	"github.com/halamedia/aircheck/internal/store"
	"github.com/halamedia/aircheck/internal/trigger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// recorderStatus mirrors the recorder debug endpoint: recent events plus
// the currently live sessions.
type recorderStatus struct {
	Logs           []status.Entry        `json:"logs"`
	ActiveSessions []trigger.SessionInfo `json:"activeSessions"`
}

func (s *Server) handleRecorderLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, recorderStatus{
		Logs:           s.statusLog.Entries(),
		ActiveSessions: s.sessions.ActiveSessions(),
	})
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	var spec schedule.Job
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// user-created jobs are never system-managed
	spec.ID = ""
	spec.Locked = false
	spec.Enabled = true

	job, err := s.registry.Add(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleRemoveSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.registry.Remove(id)
	switch {
	case errors.Is(err, schedule.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "schedule not found")
	case errors.Is(err, schedule.ErrJobLocked):
		writeError(w, http.StatusForbidden, "system schedules cannot be deleted")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleToggleSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.registry.Toggle(id)
	switch {
	case errors.Is(err, schedule.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "schedule not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, job)
	}
}

type recordingsResponse struct {
	Recordings []store.Recording `json:"recordings"`
	TotalBytes int64             `json:"totalBytes"`
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	recs, err := s.recordings.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.recordings.TotalBytes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if recs == nil {
		recs = []store.Recording{}
	}
	writeJSON(w, http.StatusOK, recordingsResponse{Recordings: recs, TotalBytes: total})
}
