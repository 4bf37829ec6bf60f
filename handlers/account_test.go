package handlers_test

import (
	"net/http"
	"testing"

	"github.com/kevinaaaquil/stories/backend/models"
)

func TestBookmarkRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	if w := s.do(t, http.MethodGet, "/api/bookmark", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}
	hdr := bearer(s.signup(t, "reader@example.com", nil).Token)

	w := s.do(t, http.MethodGet, "/api/bookmark", nil, hdr)
	if w.Body.String() != "{\"bookmark\":null}\n" {
		t.Fatalf("expected a null bookmark, got %q", w.Body.String())
	}
	if w := s.do(t, http.MethodPut, "/api/bookmark", map[string]int{"chapterIndex": 5, "subChapterIndex": 0}, hdr); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid position expected 400, got %d", w.Code)
	}
	for i := 0; i < 2; i++ {
		if w := s.do(t, http.MethodPut, "/api/bookmark", map[string]int{"chapterIndex": 0, "subChapterIndex": 3}, hdr); w.Code != http.StatusOK {
			t.Fatalf("save expected 200, got %d", w.Code)
		}
	}
	got := decode[map[string]models.Bookmark](t, s.do(t, http.MethodGet, "/api/bookmark", nil, hdr))
	if got["bookmark"].SubChapterIndex != 3 || len(s.store.bookmarks) != 1 {
		t.Fatalf("unexpected bookmark state %+v", got)
	}
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	hdr := bearer(s.signup(t, "reader@example.com", nil).Token)

	p := decode[models.Profile](t, s.do(t, http.MethodGet, "/api/profile", nil, hdr))
	if p.Email != "reader@example.com" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if w := s.do(t, http.MethodPatch, "/api/profile", map[string]string{"username": "  "}, hdr); w.Code != http.StatusBadRequest {
		t.Fatalf("blank username expected 400, got %d", w.Code)
	}
	p = decode[models.Profile](t, s.do(t, http.MethodPatch, "/api/profile", map[string]string{"username": "writer", "bio": "hi"}, hdr))
	if p.Username != "writer" || p.Bio != "hi" {
		t.Fatalf("unexpected updated profile %+v", p)
	}
}

func TestPreferencesRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	hdr := bearer(s.signup(t, "reader@example.com", nil).Token)

	p := decode[models.UserPreferences](t, s.do(t, http.MethodGet, "/api/preferences", nil, hdr))
	if p.Theme != models.DefaultTheme {
		t.Fatalf("unexpected defaults %+v", p)
	}
	p = decode[models.UserPreferences](t, s.do(t, http.MethodPatch, "/api/preferences", map[string]string{"theme": "light"}, hdr))
	if p.Theme != "light" || p.FontSize != models.DefaultFontSize {
		t.Fatalf("unexpected preferences %+v", p)
	}
	p = decode[models.UserPreferences](t, s.do(t, http.MethodPut, "/api/preferences/progress", map[string]int{"chapterIndex": 0, "subChapterIndex": 1}, hdr))
	if p.LastReadSubChapter != 1 || p.ReadingProgress["0-1"] == 0 {
		t.Fatalf("unexpected progress %+v", p)
	}
}
