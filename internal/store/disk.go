// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/halamedia/aircheck/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	filename         TEXT NOT NULL UNIQUE,
	station_id       TEXT NOT NULL,
	station_name     TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	size_bytes       INTEGER NOT NULL,
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at);
CREATE INDEX IF NOT EXISTS idx_recordings_station ON recordings(station_id);
`

// DiskStore writes audio files to a directory and tracks metadata in a
// sqlite database next to it.
type DiskStore struct {
	dir string
	db  *sql.DB
}

// OpenDisk opens (or initialises) a DiskStore rooted at dir. Audio files go
// to dir/recordings, metadata to dir/recordings.db.
func OpenDisk(dir string) (*DiskStore, error) {
	recDir := filepath.Join(dir, "recordings")
	if err := os.MkdirAll(recDir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "recordings.db"))
	if err != nil {
		return nil, fmt.Errorf("open metadata db: %w", err)
	}
	// sqlite allows a single writer; the daemon is single-process
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init metadata schema: %w", err)
	}
	return &DiskStore{dir: recDir, db: db}, nil
}

// Close releases the metadata database.
func (s *DiskStore) Close() error {
	return s.db.Close()
}

// Store writes the audio file atomically and upserts its metadata row.
// Same-filename re-delivery overwrites both.
func (s *DiskStore) Store(ctx context.Context, data []byte, filename string, meta Metadata) (Recording, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return Recording{}, fmt.Errorf("write recording %s: %w", filename, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings (filename, station_id, station_name, duration_seconds, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			station_id = excluded.station_id,
			station_name = excluded.station_name,
			duration_seconds = excluded.duration_seconds,
			size_bytes = excluded.size_bytes,
			created_at = excluded.created_at`,
		filename, meta.StationID, meta.StationName, meta.DurationSec, meta.SizeBytes,
		meta.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return Recording{}, fmt.Errorf("record metadata for %s: %w", filename, err)
	}

	rec := Recording{
		Filename:    filename,
		StationID:   meta.StationID,
		StationName: meta.StationName,
		DurationSec: meta.DurationSec,
		SizeBytes:   meta.SizeBytes,
		CreatedAt:   meta.Timestamp.UTC(),
	}
	// LastInsertId is stale when the upsert takes the update path, so read
	// the row id back instead.
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM recordings WHERE filename = ?`, filename,
	).Scan(&rec.ID); err != nil {
		return Recording{}, fmt.Errorf("read back id for %s: %w", filename, err)
	}
	return rec, nil
}

// List returns all recordings, newest first.
func (s *DiskStore) List(ctx context.Context) ([]Recording, error) {
	return s.query(ctx, `
		SELECT id, filename, station_id, station_name, duration_seconds, size_bytes, created_at
		FROM recordings ORDER BY created_at DESC`)
}

// ListOlderThan returns recordings created strictly before cutoff.
func (s *DiskStore) ListOlderThan(ctx context.Context, cutoff time.Time) ([]Recording, error) {
	return s.query(ctx, `
		SELECT id, filename, station_id, station_name, duration_seconds, size_bytes, created_at
		FROM recordings WHERE created_at < ? ORDER BY created_at`,
		cutoff.UTC().Format(time.RFC3339))
}

// RemoveAll deletes the given recordings from disk and from the metadata
// database. A missing file is not an error; the row is removed regardless.
func (s *DiskStore) RemoveAll(ctx context.Context, recs []Recording) error {
	logger := log.WithComponent("store")
	for _, rec := range recs {
		path := filepath.Join(s.dir, filepath.Base(rec.Filename))
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove recording file %s: %w", rec.Filename, err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, rec.ID); err != nil {
			return fmt.Errorf("remove recording row %d: %w", rec.ID, err)
		}
		logger.Info().
			Str("filename", rec.Filename).
			Int64("size_bytes", rec.SizeBytes).
			Msg("recording removed")
	}
	return nil
}

// TotalBytes sums the size of all stored recordings.
func (s *DiskStore) TotalBytes(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT SUM(size_bytes) FROM recordings`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum recording sizes: %w", err)
	}
	return total.Int64, nil
}

// Path returns the on-disk path for a stored filename.
func (s *DiskStore) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

func (s *DiskStore) query(ctx context.Context, q string, args ...any) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Recording
	for rows.Next() {
		var rec Recording
		var created string
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.StationID, &rec.StationName,
			&rec.DurationSec, &rec.SizeBytes, &created); err != nil {
			return nil, fmt.Errorf("scan recording row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parse recording timestamp %q: %w", created, err)
		}
		rec.CreatedAt = ts
		out = append(out, rec)
	}
	return out, rows.Err()
}
