// Package store keeps processed artifacts on disk with TTL eviction
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vinylfy/vinylfy/internal/codec"
	"github.com/vinylfy/vinylfy/internal/vinyl"
)

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = 30 * time.Minute

// Clock returns the current time. Injectable for TTL tests.
type Clock func() time.Time

// Artifact is one stored processing result. Expiry is fixed at
// creation; reads never extend it.
type Artifact struct {
	ID           string
	OriginalName string
	Format       codec.Format
	Preset       string
	Settings     vinyl.Settings
	Path         string
	Size         int64
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the artifact is past its TTL at now. The
// artifact is visible strictly before ExpiresAt; at the instant itself
// it is already gone.
func (a *Artifact) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// Stats summarizes the store contents.
type Stats struct {
	TotalFiles int
	TotalBytes int64
	Dir        string
}

// Info carries the metadata recorded alongside a new artifact.
type Info struct {
	OriginalName string
	Format       codec.Format
	Preset       string
	Settings     vinyl.Settings
}

// Store is a concurrency-safe registry of processed files. Entries
// live in memory; payloads live under dir. Files are published with a
// temp-write-then-rename so a crash mid-encode never leaves a partial
// artifact visible.
type Store struct {
	dir   string
	ttl   time.Duration
	clock Clock
	log   *logrus.Entry

	mu        sync.Mutex
	artifacts map[string]*Artifact

	sweepEvery time.Duration
	stop       chan struct{}
	done       chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source.
func WithClock(clock Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithSweepInterval changes how often expired entries are swept.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepEvery = d }
}

// New creates a store rooted at dir. The directory is created if
// missing. Call Start to enable background sweeping.
func New(dir string, ttl time.Duration, log *logrus.Logger, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	s := &Store{
		dir:        dir,
		ttl:        ttl,
		clock:      time.Now,
		log:        log.WithField("component", "store"),
		artifacts:  make(map[string]*Artifact),
		sweepEvery: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log.WithFields(logrus.Fields{
		"dir": dir,
		"ttl": ttl,
	}).Info("artifact store initialized")
	return s, nil
}

// Create allocates an ID, lets write render the payload to a staging
// path, then atomically publishes it. On write failure the staging
// file is removed and nothing is registered.
func (s *Store) Create(info Info, write func(path string) error) (Artifact, error) {
	id := uuid.NewString()
	final := filepath.Join(s.dir, id+info.Format.Extension())
	staging := final + ".tmp"

	if err := write(staging); err != nil {
		os.Remove(staging)
		return Artifact{}, err
	}

	fi, err := os.Stat(staging)
	if err != nil {
		os.Remove(staging)
		return Artifact{}, fmt.Errorf("failed to stat staged artifact: %w", err)
	}

	if err := os.Rename(staging, final); err != nil {
		os.Remove(staging)
		return Artifact{}, fmt.Errorf("failed to publish artifact: %w", err)
	}

	now := s.clock()
	a := &Artifact{
		ID:           id,
		OriginalName: info.OriginalName,
		Format:       info.Format,
		Preset:       info.Preset,
		Settings:     info.Settings,
		Path:         final,
		Size:         fi.Size(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	s.mu.Lock()
	s.artifacts[id] = a
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"id":     id,
		"format": info.Format,
		"size":   fi.Size(),
	}).Info("stored artifact")
	return *a, nil
}

// Get returns an artifact by ID. Expired entries and entries whose
// payload vanished from disk are evicted on access and reported as
// missing.
func (s *Store) Get(id string) (Artifact, bool) {
	s.mu.Lock()
	a, ok := s.artifacts[id]
	s.mu.Unlock()
	if !ok {
		return Artifact{}, false
	}

	if a.Expired(s.clock()) {
		s.log.WithField("id", id).Info("artifact expired")
		s.Delete(id)
		return Artifact{}, false
	}
	if _, err := os.Stat(a.Path); err != nil {
		s.log.WithField("id", id).Warn("artifact payload missing on disk")
		s.Delete(id)
		return Artifact{}, false
	}
	return *a, true
}

// Delete removes an artifact and its payload. Deleting an unknown ID
// is a no-op; the bool reports whether anything was removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	a, ok := s.artifacts[id]
	if ok {
		delete(s.artifacts, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		s.log.WithField("id", id).WithError(err).Error("failed to remove artifact payload")
	}
	s.log.WithField("id", id).Info("deleted artifact")
	return true
}

// List returns all live artifacts sorted by creation time, newest
// first. Expired entries are skipped but not evicted.
func (s *Store) List() []Artifact {
	now := s.clock()
	s.mu.Lock()
	out := make([]Artifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		if !a.Expired(now) {
			out = append(out, *a)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Stats reports the live entry count and total payload size.
func (s *Store) Stats() Stats {
	now := s.clock()
	st := Stats{Dir: s.dir}
	s.mu.Lock()
	for _, a := range s.artifacts {
		if a.Expired(now) {
			continue
		}
		st.TotalFiles++
		st.TotalBytes += a.Size
	}
	s.mu.Unlock()
	return st
}

// Sweep evicts every expired artifact and returns how many were
// removed.
func (s *Store) Sweep() int {
	now := s.clock()

	s.mu.Lock()
	var expired []string
	for id, a := range s.artifacts {
		if a.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	removed := 0
	for _, id := range expired {
		if s.Delete(id) {
			removed++
		}
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("sweep evicted expired artifacts")
	}
	return removed
}

// Start launches the background sweep loop. Stop terminates it.
func (s *Store) Start() {
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
	s.log.WithField("interval", s.sweepEvery).Info("sweep loop started")
}

// Stop terminates the sweep loop and waits for it to exit. Safe to
// call without Start and safe to call twice.
func (s *Store) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.done = nil
}
