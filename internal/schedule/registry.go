// SPDX-License-Identifier: MIT

package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// ErrJobLocked is returned when a caller tries to delete a system-managed job.
var ErrJobLocked = errors.New("job is locked")

// ErrJobNotFound is returned for operations on unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// Registry is the ordered, persisted collection of capture jobs. All
// mutations re-serialize the whole set atomically; reads return copies so
// the trigger engine always sees a consistent snapshot.
type Registry struct {
	mu    sync.RWMutex
	path  string
	jobs  []Job
	now   func() time.Time
	newID func() string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the registry's time source (for tests).
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator overrides the registry's ID source (for tests).
func WithIDGenerator(newID func() string) RegistryOption {
	return func(r *Registry) { r.newID = newID }
}

// NewRegistry loads the registry from path, creating an empty one if the
// file does not exist yet. System jobs are seeded afterwards via Seed.
func NewRegistry(path string, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		path:  path,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("read schedule registry %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &r.jobs); err != nil {
		return nil, fmt.Errorf("parse schedule registry %s: %w", path, err)
	}
	return r, nil
}

// List returns a copy of all jobs in registry order.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Get returns the job with the given ID.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return Job{}, ErrJobNotFound
}

// Add validates spec, assigns an ID and creation time if missing, appends it
// and persists the set. It returns the stored job.
func (r *Registry) Add(spec Job) (Job, error) {
	if err := spec.Validate(); err != nil {
		return Job{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.ID == "" {
		spec.ID = r.newID()
	} else {
		for _, j := range r.jobs {
			if j.ID == spec.ID {
				return Job{}, fmt.Errorf("job id %q already exists", spec.ID)
			}
		}
	}
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = r.now()
	}

	r.jobs = append(r.jobs, spec)
	if err := r.persistLocked(); err != nil {
		r.jobs = r.jobs[:len(r.jobs)-1]
		return Job{}, err
	}
	return spec, nil
}

// Remove deletes the job with the given ID. Locked jobs are refused.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, j := range r.jobs {
		if j.ID == id {
			if j.Locked {
				return fmt.Errorf("remove job %s: %w", id, ErrJobLocked)
			}
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrJobNotFound
	}

	removed := r.jobs[idx]
	r.jobs = append(r.jobs[:idx], r.jobs[idx+1:]...)
	if err := r.persistLocked(); err != nil {
		r.jobs = append(r.jobs[:idx], append([]Job{removed}, r.jobs[idx:]...)...)
		return err
	}
	return nil
}

// Toggle flips the enabled flag of the job with the given ID.
func (r *Registry) Toggle(id string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.jobs {
		if r.jobs[i].ID == id {
			r.jobs[i].Enabled = !r.jobs[i].Enabled
			if err := r.persistLocked(); err != nil {
				r.jobs[i].Enabled = !r.jobs[i].Enabled
				return Job{}, err
			}
			return r.jobs[i], nil
		}
	}
	return Job{}, ErrJobNotFound
}

// Seed installs system-managed jobs. Existing jobs with the same ID are
// replaced in place so system schedule updates ship with the binary; user
// jobs are never touched.
func (r *Registry) Seed(system []Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sys := range system {
		sys.Locked = true
		if err := sys.Validate(); err != nil {
			return fmt.Errorf("system job: %w", err)
		}
		replaced := false
		for i := range r.jobs {
			if r.jobs[i].ID == sys.ID {
				if sys.CreatedAt.IsZero() {
					sys.CreatedAt = r.jobs[i].CreatedAt
				}
				r.jobs[i] = sys
				replaced = true
				break
			}
		}
		if !replaced {
			if sys.CreatedAt.IsZero() {
				sys.CreatedAt = r.now()
			}
			r.jobs = append(r.jobs, sys)
		}
	}
	return r.persistLocked()
}

// persistLocked re-serializes the whole job set atomically. Callers must
// hold the write lock.
func (r *Registry) persistLocked() error {
	data, err := json.MarshalIndent(r.jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedule registry: %w", err)
	}
	if err := renameio.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule registry %s: %w", r.path, err)
	}
	return nil
}
