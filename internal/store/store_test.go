package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vinylfy/vinylfy/internal/codec"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s, err := New(t.TempDir(), 24*time.Hour, quietLogger(), WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	return s, clock
}

func putArtifact(t *testing.T, s *Store, payload string) Artifact {
	t.Helper()
	a, err := s.Create(Info{
		OriginalName: "song.mp3",
		Format:       codec.FormatWAV,
		Preset:       "medium",
	}, func(path string) error {
		return os.WriteFile(path, []byte(payload), 0o644)
	})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	a := putArtifact(t, s, "payload")

	if a.ID == "" {
		t.Fatal("artifact has no ID")
	}
	if a.Size != int64(len("payload")) {
		t.Errorf("Size = %d, want %d", a.Size, len("payload"))
	}
	if !strings.HasSuffix(a.Path, a.ID+".wav") {
		t.Errorf("payload path %q does not follow <id>.<ext>", a.Path)
	}
	if got, want := a.ExpiresAt.Sub(a.CreatedAt), 24*time.Hour; got != want {
		t.Errorf("TTL = %v, want %v", got, want)
	}

	got, ok := s.Get(a.ID)
	if !ok {
		t.Fatal("Get returned not found for live artifact")
	}
	if got.OriginalName != "song.mp3" || got.Preset != "medium" {
		t.Errorf("metadata mismatch: %+v", got)
	}

	data, err := os.ReadFile(got.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("payload = %q", data)
	}
}

func TestCreateFailureLeavesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Create(Info{Format: codec.FormatWAV}, func(path string) error {
		os.WriteFile(path, []byte("partial"), 0o644)
		return fmt.Errorf("encoder blew up")
	})
	if err == nil {
		t.Fatal("expected error from failed write")
	}

	if st := s.Stats(); st.TotalFiles != 0 {
		t.Errorf("failed create registered an artifact: %+v", st)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("staging file left behind: %v", entries)
	}
}

func TestGetUnknownID(t *testing.T) {
	s, _ := newTestStore(t)
	if _, ok := s.Get("no-such-id"); ok {
		t.Error("Get returned ok for unknown ID")
	}
}

func TestExpiryOnGet(t *testing.T) {
	s, clock := newTestStore(t)
	a := putArtifact(t, s, "payload")

	// One minute before expiry: still served.
	clock.Advance(24*time.Hour - time.Minute)
	if _, ok := s.Get(a.ID); !ok {
		t.Fatal("artifact expired early")
	}

	// Past expiry: evicted lazily, payload gone.
	clock.Advance(2 * time.Minute)
	if _, ok := s.Get(a.ID); ok {
		t.Fatal("expired artifact still served")
	}
	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Errorf("expired payload still on disk: %v", err)
	}
}

func TestExpiryAtExactInstant(t *testing.T) {
	s, clock := newTestStore(t)
	a := putArtifact(t, s, "payload")

	// Visibility is strictly before ExpiresAt; at the instant itself
	// the artifact is gone.
	clock.Advance(24 * time.Hour)
	if _, ok := s.Get(a.ID); ok {
		t.Fatal("artifact served at its exact expiry instant")
	}
}

func TestReadsDoNotExtendTTL(t *testing.T) {
	s, clock := newTestStore(t)
	a := putArtifact(t, s, "payload")

	for i := 0; i < 10; i++ {
		clock.Advance(3 * time.Hour)
		s.Get(a.ID)
	}
	// 30 hours elapsed; repeated reads must not have refreshed expiry.
	if _, ok := s.Get(a.ID); ok {
		t.Error("reads extended the TTL")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	a := putArtifact(t, s, "payload")

	if !s.Delete(a.ID) {
		t.Error("first delete reported nothing removed")
	}
	if s.Delete(a.ID) {
		t.Error("second delete reported a removal")
	}
	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Error("payload survived delete")
	}
}

func TestMissingPayloadEvicts(t *testing.T) {
	s, _ := newTestStore(t)
	a := putArtifact(t, s, "payload")

	os.Remove(a.Path)

	if _, ok := s.Get(a.ID); ok {
		t.Fatal("Get served artifact with missing payload")
	}
	if st := s.Stats(); st.TotalFiles != 0 {
		t.Errorf("ghost entry kept in stats: %+v", st)
	}
}

func TestSweep(t *testing.T) {
	s, clock := newTestStore(t)
	old := putArtifact(t, s, "old")

	clock.Advance(25 * time.Hour)
	fresh := putArtifact(t, s, "fresh")

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if _, ok := s.Get(old.ID); ok {
		t.Error("swept artifact still served")
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Error("sweep removed a live artifact")
	}
}

func TestStats(t *testing.T) {
	s, clock := newTestStore(t)
	putArtifact(t, s, "aaaa")
	putArtifact(t, s, "bbbbbb")

	st := s.Stats()
	if st.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", st.TotalFiles)
	}
	if st.TotalBytes != 10 {
		t.Errorf("TotalBytes = %d, want 10", st.TotalBytes)
	}

	// Expired entries drop out of stats even before a sweep.
	clock.Advance(25 * time.Hour)
	if st := s.Stats(); st.TotalFiles != 0 || st.TotalBytes != 0 {
		t.Errorf("expired entries counted: %+v", st)
	}
}

func TestListNewestFirst(t *testing.T) {
	s, clock := newTestStore(t)
	first := putArtifact(t, s, "1")
	clock.Advance(time.Minute)
	second := putArtifact(t, s, "2")

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d entries", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Error("List() not sorted newest first")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t)

	ids := make(chan string, 64)

	var producers sync.WaitGroup
	for i := 0; i < 8; i++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for j := 0; j < 8; j++ {
				a, err := s.Create(Info{Format: codec.FormatWAV}, func(path string) error {
					return os.WriteFile(path, []byte("x"), 0o644)
				})
				if err != nil {
					t.Error(err)
					return
				}
				ids <- a.ID
			}
		}()
	}

	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for id := range ids {
				s.Get(id)
				s.Delete(id)
			}
		}()
	}

	producers.Wait()
	close(ids)
	consumers.Wait()

	if st := s.Stats(); st.TotalFiles != 0 {
		t.Errorf("leftover artifacts after concurrent churn: %d", st.TotalFiles)
	}
}

func TestSweepLoopStartStop(t *testing.T) {
	clock := newFakeClock()
	s, err := New(t.TempDir(), time.Hour, quietLogger(),
		WithClock(clock.Now), WithSweepInterval(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	a := putArtifact(t, s, "payload")
	clock.Advance(2 * time.Hour)

	s.Start()
	deadline := time.After(2 * time.Second)
	for {
		if _, err := os.Stat(a.Path); os.IsNotExist(err) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweep loop never evicted expired artifact")
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.Stop()
	s.Stop() // second stop is a no-op
}

func TestArtifactPathsStayInsideDir(t *testing.T) {
	s, _ := newTestStore(t)
	a := putArtifact(t, s, "payload")
	rel, err := filepath.Rel(s.dir, a.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Errorf("artifact path %q escapes storage dir %q", a.Path, s.dir)
	}
}
