// SPDX-License-Identifier: MIT

// Package store persists finished captures and their metadata, and owns the
// retention sweep. The capture subsystem only sees the narrow Sink contract.
package store

import (
	"context"
	"time"
)

// Metadata describes one delivered capture.
type Metadata struct {
	StationID   string
	StationName string
	DurationSec int
	SizeBytes   int64
	Timestamp   time.Time
}

// Recording is one persisted capture as known to the metadata database.
type Recording struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	StationID   string    `json:"stationId"`
	StationName string    `json:"stationName"`
	DurationSec int       `json:"durationSeconds"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Sink accepts finished capture buffers. Store must be idempotent under the
// same filename: re-delivery overwrites rather than duplicates.
type Sink interface {
	Store(ctx context.Context, data []byte, filename string, meta Metadata) (Recording, error)
}

// Sweeper exposes the retention side of a store.
type Sweeper interface {
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]Recording, error)
	RemoveAll(ctx context.Context, recs []Recording) error
}
