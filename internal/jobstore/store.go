// Package jobstore provides the durable mapping from job id to jobstate.State.
// The job directory's job_state.json is authoritative; a cache (e.g. an
// in-memory mirror, or a remote cache in production) may shadow it for fast
// reads but is never trusted over the file on restart, per spec §9 note (i):
// the file wins on startup.
//
// Every read-modify-write helper (SetStatus, SetProgress, AddError)
// takes a per-job OS-level file lock for the duration of the call, so
// concurrent stage workers touching the same job id serialize instead of
// racing a lost update.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/sealium/transcription-service/internal/atomicfile"
	"github.com/sealium/transcription-service/internal/jobpaths"
	"github.com/sealium/transcription-service/internal/jobstate"
)

// Sentinel errors for job store operations.
var (
	// ErrStateCorrupted is returned by Load when job_state.json exists but
	// cannot be parsed as a valid State.
	ErrStateCorrupted = errors.New("jobstore: state file corrupted")
)

// Cache is an optional fast-path mirror for job state, keyed
// "transcription:job:<id>" per spec §3. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*jobstate.State, bool)
	Set(ctx context.Context, key string, state *jobstate.State)
	Delete(ctx context.Context, key string)
}

func cacheKey(id string) string { return "transcription:job:" + id }

// Store is the durable JobStore port described in spec §4.1.
type Store interface {
	Create(ctx context.Context, state *jobstate.State) error
	Load(ctx context.Context, id string) (*jobstate.State, error)
	Save(ctx context.Context, state *jobstate.State) error
	SetStatus(ctx context.Context, id string, status jobstate.Status) error
	SetProgress(ctx context.Context, id string, total, done *int) error
	AddError(ctx context.Context, id string, msg string) error
}

// FileStore implements Store against the job directory tree described in
// spec §3, with an optional Cache mirror.
type FileStore struct {
	storageRoot string
	cache       Cache
}

// New creates a FileStore rooted at storageRoot. cache may be nil.
func New(storageRoot string, cache Cache) *FileStore {
	return &FileStore{storageRoot: storageRoot, cache: cache}
}

func (s *FileStore) paths(id string) jobpaths.Paths {
	return jobpaths.New(s.storageRoot, id)
}

func (s *FileStore) lock(id string) *flock.Flock {
	return flock.New(s.paths(id).StateFile() + ".lock")
}

// Create writes a brand-new job_state.json for state, creating the job
// directory tree, and mirrors into the cache if configured.
func (s *FileStore) Create(_ context.Context, state *jobstate.State) error {
	p := s.paths(state.ID)
	for _, dir := range p.AllDirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("jobstore: create job dir %s: %w", dir, err)
		}
	}
	if err := s.writeLocked(state); err != nil {
		return err
	}
	return nil
}

// Load reads job_state.json for id. The file is always read first and,
// when present, is what Load returns (and re-populates into the cache). A
// present-but-unparseable file returns ErrStateCorrupted. Only when the
// file is missing is the cache consulted: a cached entry is returned if
// there is one, otherwise (nil, nil), not an error.
func (s *FileStore) Load(ctx context.Context, id string) (*jobstate.State, error) {
	p := s.paths(id)
	data, err := os.ReadFile(p.StateFile())
	if err != nil {
		if os.IsNotExist(err) {
			if s.cache != nil {
				if cached, ok := s.cache.Get(ctx, cacheKey(id)); ok {
					return cached.Clone(), nil
				}
			}
			return nil, nil
		}
		return nil, fmt.Errorf("jobstore: read state file: %w", err)
	}

	var state jobstate.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, cacheKey(id), state.Clone())
	}
	return &state, nil
}

// Save atomically overwrites job_state.json for state.ID and refreshes the
// cache mirror.
func (s *FileStore) Save(_ context.Context, state *jobstate.State) error {
	return s.writeLocked(state)
}

func (s *FileStore) writeLocked(state *jobstate.State) error {
	fl := s.lock(state.ID)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("jobstore: acquire lock for %s: %w", state.ID, err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("jobstore: marshal state: %w", err)
	}
	if err := atomicfile.WriteFile(s.paths(state.ID).StateFile(), data, 0o644); err != nil {
		return fmt.Errorf("jobstore: write state: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(context.Background(), cacheKey(state.ID), state.Clone())
	}
	return nil
}

// loadModifySave performs a locked read-modify-write on the job identified
// by id, passing the loaded (and possibly nil) state to mutate to fn.
func (s *FileStore) loadModifySave(ctx context.Context, id string, fn func(*jobstate.State) error) error {
	fl := s.lock(id)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("jobstore: acquire lock for %s: %w", id, err)
	}
	defer func() { _ = fl.Unlock() }()

	p := s.paths(id)
	data, err := os.ReadFile(p.StateFile())
	if err != nil {
		return fmt.Errorf("jobstore: read state file: %w", err)
	}
	var state jobstate.State
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}

	if err := fn(&state); err != nil {
		return err
	}

	out, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return fmt.Errorf("jobstore: marshal state: %w", err)
	}
	if err := atomicfile.WriteFile(p.StateFile(), out, 0o644); err != nil {
		return fmt.Errorf("jobstore: write state: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, cacheKey(id), state.Clone())
	}
	return nil
}

// SetStatus transitions the job's status (see jobstate.State.SetStatus).
func (s *FileStore) SetStatus(ctx context.Context, id string, status jobstate.Status) error {
	return s.loadModifySave(ctx, id, func(st *jobstate.State) error {
		return st.SetStatus(status)
	})
}

// SetProgress updates chunk counters; either pointer may be nil.
func (s *FileStore) SetProgress(ctx context.Context, id string, total, done *int) error {
	return s.loadModifySave(ctx, id, func(st *jobstate.State) error {
		st.SetProgress(total, done)
		return nil
	})
}

// AddError appends msg to the job's error list.
func (s *FileStore) AddError(ctx context.Context, id string, msg string) error {
	return s.loadModifySave(ctx, id, func(st *jobstate.State) error {
		st.AddError(msg)
		return nil
	})
}

var _ Store = (*FileStore)(nil)
