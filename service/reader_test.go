package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/stories/backend/analytics"
	"github.com/kevinaaaquil/stories/backend/story"
)

type memRecorder struct {
	mu     sync.Mutex
	opened []analytics.Visit
	closed int
}

func (m *memRecorder) OpenPageView(ctx context.Context, v analytics.Visit) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, v)
	return fmt.Sprintf("pv-%d", len(m.opened)), nil
}

func (m *memRecorder) CheckpointPageView(ctx context.Context, id string, seconds int64) error {
	return nil
}

func (m *memRecorder) ClosePageView(ctx context.Context, id string, seconds int64) error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	return nil
}

func newSessions(t *testing.T) (*ReaderSessions, *memRecorder, *analytics.Tracker) {
	t.Helper()
	rec := &memRecorder{}
	tracker := analytics.NewTracker(rec, analytics.WithCheckpointInterval(0))
	return NewReaderSessions(story.NewNavigator(story.Default()), tracker), rec, tracker
}

func drain(t *testing.T, tracker *analytics.Tracker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tracker.Wait(ctx); err != nil {
		t.Fatalf("tracker did not drain: %v", err)
	}
}

func TestAnonymousReaderHitsSignupPrompt(t *testing.T) {
	rs, rec, tracker := newSessions(t)
	s := rs.Create(Identity{})

	snap := s.Snapshot()
	if snap.Position != story.Start || snap.Page.Title != "Prologue" || snap.CanGoBack {
		t.Fatalf("unexpected initial state %+v", snap)
	}
	for i := 0; i < 3; i++ {
		snap = s.Next()
	}
	if snap.Position != (story.Position{ChapterIndex: 0, SubChapterIndex: 2}) || snap.SignupRequired {
		t.Fatalf("unexpected state after three steps %+v", snap)
	}
	snap = s.Next()
	if !snap.SignupRequired || snap.Position.SubChapterIndex != 2 {
		t.Fatalf("expected the signup prompt at (0,2), got %+v", snap)
	}

	snap = s.SetIdentity(Identity{UserID: "65f000000000000000000001", Email: "reader@example.com"})
	if snap.SignupRequired || !snap.SignedIn {
		t.Fatalf("sign in should clear the prompt, got %+v", snap)
	}
	snap = s.Next()
	if snap.Position.SubChapterIndex != 3 {
		t.Fatalf("expected (0,3), got %v", snap.Position)
	}

	rs.CloseAll()
	drain(t, tracker)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	// prologue, three steps, reopen on sign in, one more step
	if len(rec.opened) != 6 {
		t.Fatalf("expected 6 page views, got %d", len(rec.opened))
	}
	if rec.closed != len(rec.opened) {
		t.Fatalf("opened %d page views but closed %d", len(rec.opened), rec.closed)
	}
	if last := rec.opened[len(rec.opened)-1]; !last.LoggedIn || last.SubChapterIndex != 3 {
		t.Fatalf("unexpected last visit %+v", last)
	}
}

func TestRefusedMoveOpensNoPageView(t *testing.T) {
	rs, rec, tracker := newSessions(t)
	s := rs.Create(Identity{})
	s.Prev()
	rs.CloseAll()
	drain(t, tracker)
	if len(rec.opened) != 1 || rec.closed != 1 {
		t.Fatalf("expected a single page view, got %d opened, %d closed", len(rec.opened), rec.closed)
	}
}

func TestJump(t *testing.T) {
	rs, _, _ := newSessions(t)
	s := rs.Create(Identity{})
	s.SetNavigationOpen(true)

	snap, err := s.Jump(story.Position{ChapterIndex: 0, SubChapterIndex: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.SignupRequired || !snap.NavigationOpen || snap.Position != story.Start {
		t.Fatalf("gated jump should be refused, got %+v", snap)
	}
	s.DismissSignup()

	snap, err = s.Jump(story.Position{ChapterIndex: 0, SubChapterIndex: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.NavigationOpen || snap.Position.SubChapterIndex != 1 {
		t.Fatalf("unexpected state %+v", snap)
	}

	if _, err := s.Jump(story.Position{ChapterIndex: 7, SubChapterIndex: 0}); !errors.Is(err, story.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestGetAndClose(t *testing.T) {
	rs, _, _ := newSessions(t)
	s := rs.Create(Identity{})
	got, err := rs.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := rs.Close(s.ID()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := rs.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := rs.Close(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestHeldSessionOpensNoViewAfterClose(t *testing.T) {
	rs, rec, tracker := newSessions(t)
	s := rs.Create(Identity{})
	held, err := rs.Get(s.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := rs.Close(s.ID()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	held.Next()
	held.SetIdentity(Identity{UserID: "u1"})
	drain(t, tracker)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.opened) != 1 || rec.closed != 1 {
		t.Fatalf("opened=%d closed=%d, want 1 and 1", len(rec.opened), rec.closed)
	}
}

func TestSweep(t *testing.T) {
	rs, _, _ := newSessions(t)
	now := time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC)
	rs.now = func() time.Time { return now }

	stale := rs.Create(Identity{})
	now = now.Add(20 * time.Minute)
	fresh := rs.Create(Identity{})

	if n := rs.Sweep(15 * time.Minute); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	if _, err := rs.Get(stale.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("stale session should be gone")
	}
	if _, err := rs.Get(fresh.ID()); err != nil {
		t.Fatalf("fresh session missing: %v", err)
	}
}

type fakeObjects map[string]string

func (f fakeObjects) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestLoadStory(t *testing.T) {
	ctx := context.Background()
	doc := `{"title":"Remote","chapters":[{"title":"A","content":"a"}]}`

	s, err := LoadStory(ctx, fakeObjects{"stories/remote.json": doc}, "stories/remote.json", "")
	if err != nil || s.Title != "Remote" {
		t.Fatalf("s3 load = %v, %v", s, err)
	}
	if _, err := LoadStory(ctx, nil, "stories/remote.json", ""); err == nil {
		t.Fatal("expected an error without S3")
	}

	path := filepath.Join(t.TempDir(), "story.json")
	if err := os.WriteFile(path, []byte(strings.Replace(doc, "Remote", "Local", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = LoadStory(ctx, nil, "", path)
	if err != nil || s.Title != "Local" {
		t.Fatalf("file load = %v, %v", s, err)
	}

	s, err = LoadStory(ctx, nil, "", "")
	if err != nil || len(s.Chapters) == 0 {
		t.Fatalf("default load = %v, %v", s, err)
	}
}
