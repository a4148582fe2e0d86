// SPDX-License-Identifier: MIT

// Package status keeps a bounded in-memory log of recorder events for the
// debug endpoint. It is append-only and never used for control decisions.
package status

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one timestamped human-readable recorder event.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Log is a fixed-capacity ring of the most recent entries.
type Log struct {
	mu      sync.Mutex
	cap     int
	entries []Entry
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the log's time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// NewLog creates a Log keeping the most recent capacity entries.
func NewLog(capacity int, opts ...Option) *Log {
	l := &Log{cap: capacity, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Infof appends an info-level event.
func (l *Log) Infof(format string, args ...any) {
	l.append("info", format, args...)
}

// Errorf appends an error-level event.
func (l *Log) Errorf(format string, args ...any) {
	l.append("error", format, args...)
}

func (l *Log) append(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Time:    l.now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
}

// Entries returns a copy of the retained events, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
