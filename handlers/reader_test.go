package handlers_test

import (
	"net/http"
	"testing"

	"github.com/kevinaaaquil/stories/backend/handlers"
	"github.com/kevinaaaquil/stories/backend/service"
	"github.com/kevinaaaquil/stories/backend/story"
)

func sessionPath(id, action string) string {
	p := "/api/reader/sessions/" + id
	if action != "" {
		p += "/" + action
	}
	return p
}

func TestReaderAnonymousWalk(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/reader/sessions", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", w.Code)
	}
	snap := decode[service.Snapshot](t, w)
	if snap.Position != story.Start || snap.Page.Title != "Prologue" || len(snap.Page.Paragraphs) == 0 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
	id := snap.SessionID

	for i := 0; i < 3; i++ {
		snap = decode[service.Snapshot](t, s.do(t, http.MethodPost, sessionPath(id, "next"), nil, nil))
	}
	if snap.Position != (story.Position{ChapterIndex: 0, SubChapterIndex: 2}) {
		t.Fatalf("expected (0,2), got %v", snap.Position)
	}
	snap = decode[service.Snapshot](t, s.do(t, http.MethodPost, sessionPath(id, "next"), nil, nil))
	if !snap.SignupRequired || snap.Position.SubChapterIndex != 2 {
		t.Fatalf("expected signup prompt, got %+v", snap)
	}

	snap = decode[service.Snapshot](t, s.do(t, http.MethodPost, sessionPath(id, "dismiss-signup"), nil, nil))
	if snap.SignupRequired {
		t.Fatal("prompt should be dismissed")
	}

	w = s.do(t, http.MethodPost, sessionPath(id, "bookmark"), nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous bookmark expected 401, got %d", w.Code)
	}
	if len(s.store.bookmarks) != 0 {
		t.Fatal("anonymous bookmark must not reach the store")
	}

	snap = decode[service.Snapshot](t, s.do(t, http.MethodPost, sessionPath(id, "prev"), nil, nil))
	if snap.Position.SubChapterIndex != 1 {
		t.Fatalf("expected (0,1), got %v", snap.Position)
	}

	if w := s.do(t, http.MethodDelete, sessionPath(id, ""), nil, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, sessionPath(id, ""), nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete expected 404, got %d", w.Code)
	}
}

func TestReaderSignedInBookmarkAndResume(t *testing.T) {
	s := newTestServer(t, nil)
	auth := s.signup(t, "reader@example.com", nil)
	hdr := bearer(auth.Token)

	snap := decode[service.Snapshot](t, s.do(t, http.MethodPost, "/api/reader/sessions", nil, hdr))
	if !snap.SignedIn {
		t.Fatal("session should start signed in")
	}
	id := snap.SessionID

	w := s.do(t, http.MethodPost, sessionPath(id, "jump"), map[string]int{"chapterIndex": 0, "subChapterIndex": 4}, hdr)
	snap = decode[service.Snapshot](t, w)
	if snap.Position != (story.Position{ChapterIndex: 0, SubChapterIndex: 4}) || !snap.SignedIn {
		t.Fatalf("unexpected jump result %+v", snap)
	}

	w = s.do(t, http.MethodPost, sessionPath(id, "bookmark"), nil, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("bookmark expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	s.do(t, http.MethodPost, sessionPath(id, "jump"), map[string]int{"chapterIndex": 0, "subChapterIndex": -1}, hdr)
	snap = decode[service.Snapshot](t, s.do(t, http.MethodPost, sessionPath(id, "resume"), nil, hdr))
	if snap.Position.SubChapterIndex != 4 {
		t.Fatalf("resume expected (0,4), got %v", snap.Position)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, p := range s.store.prefs {
		if p.LastReadSubChapter != 4 || len(p.ReadingProgress) == 0 {
			t.Fatalf("expected progress to be recorded, got %+v", p)
		}
	}
}

func TestReaderJumpErrors(t *testing.T) {
	s := newTestServer(t, nil)
	snap := decode[service.Snapshot](t, s.do(t, http.MethodPost, "/api/reader/sessions", nil, nil))

	if w := s.do(t, http.MethodPost, sessionPath(snap.SessionID, "jump"), map[string]int{"chapterIndex": 9, "subChapterIndex": 0}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("out of range jump expected 400, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, sessionPath(snap.SessionID, "jump"), map[string]int{"chapterIndex": 0}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("incomplete jump expected 400, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, sessionPath("missing", "next"), nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown session expected 404, got %d", w.Code)
	}
}

func TestReaderNavigationToggle(t *testing.T) {
	s := newTestServer(t, nil)
	snap := decode[service.Snapshot](t, s.do(t, http.MethodPost, "/api/reader/sessions", nil, nil))
	snap = decode[service.Snapshot](t, s.do(t, http.MethodPost, sessionPath(snap.SessionID, "navigation"), map[string]bool{"open": true}, nil))
	if !snap.NavigationOpen {
		t.Fatal("navigation should be open")
	}
}

func TestStory(t *testing.T) {
	s := newTestServer(t, nil)
	resp := decode[handlers.StoryResponse](t, s.do(t, http.MethodGet, "/api/story", nil, nil))
	if resp.Title == "" || resp.PreviewLimit != story.DefaultPreviewLimit || len(resp.TOC) < 2 {
		t.Fatalf("unexpected story response %+v", resp)
	}
}
