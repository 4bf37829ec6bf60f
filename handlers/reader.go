package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/stories/backend/middleware"
	"github.com/kevinaaaquil/stories/backend/service"
	"github.com/kevinaaaquil/stories/backend/story"
)

// ReaderHandler drives reader sessions. The caller's identity is re-read from
// the token on every request and applied to the session first.
type ReaderHandler struct {
	Sessions  *service.ReaderSessions
	Bookmarks Bookmarks
	Progress  Preferences
}

type positionRequest struct {
	ChapterIndex    *int `json:"chapterIndex"`
	SubChapterIndex *int `json:"subChapterIndex"`
}

func (p positionRequest) position() (story.Position, bool) {
	if p.ChapterIndex == nil || p.SubChapterIndex == nil {
		return story.Position{}, false
	}
	return story.Position{ChapterIndex: *p.ChapterIndex, SubChapterIndex: *p.SubChapterIndex}, true
}

func (h *ReaderHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.Sessions.Create(identityFrom(r))
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *ReaderHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *ReaderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Close(chi.URLParam(r, "id")); err != nil {
		http.Error(w, `{"error":"reader session not found"}`, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReaderHandler) Next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	before := s.Position()
	snap := s.Next()
	h.recordProgress(r, before, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (h *ReaderHandler) Prev(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	before := s.Position()
	snap := s.Prev()
	h.recordProgress(r, before, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (h *ReaderHandler) Jump(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	target, ok := req.position()
	if !ok {
		http.Error(w, `{"error":"chapterIndex and subChapterIndex required"}`, http.StatusBadRequest)
		return
	}
	h.jump(w, r, s, target)
}

func (h *ReaderHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.SetNavigationOpen(req.Open))
}

func (h *ReaderHandler) DismissSignup(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.DismissSignup())
}

// Bookmark saves the session's current position. Anonymous readers get the
// signup prompt instead and nothing is stored.
func (h *ReaderHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	userID, signedIn := middleware.UserIDFromContext(r.Context())
	if !signedIn {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":  "sign up to save bookmarks",
			"reader": s.PromptSignup(),
		})
		return
	}
	pos := s.Position()
	b, err := h.Bookmarks.SaveBookmark(r.Context(), userID, pos.ChapterIndex, pos.SubChapterIndex)
	if err != nil {
		log.Println("save bookmark:", err)
		http.Error(w, `{"error":"failed to save bookmark"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmark": b, "reader": s.Snapshot()})
}

// Resume jumps to the reader's saved bookmark.
func (h *ReaderHandler) Resume(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	userID, signedIn := middleware.UserIDFromContext(r.Context())
	if !signedIn {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":  "sign in to resume from a bookmark",
			"reader": s.PromptSignup(),
		})
		return
	}
	b, err := h.Bookmarks.BookmarkByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"failed to load bookmark"}`, http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, `{"error":"no bookmark saved"}`, http.StatusNotFound)
		return
	}
	h.jump(w, r, s, story.Position{ChapterIndex: b.ChapterIndex, SubChapterIndex: b.SubChapterIndex})
}

func (h *ReaderHandler) jump(w http.ResponseWriter, r *http.Request, s *service.ReaderSession, target story.Position) {
	before := s.Position()
	snap, err := s.Jump(target)
	if errors.Is(err, story.ErrOutOfRange) {
		http.Error(w, `{"error":"position out of range"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"jump failed"}`, http.StatusInternalServerError)
		return
	}
	h.recordProgress(r, before, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (h *ReaderHandler) session(w http.ResponseWriter, r *http.Request) (*service.ReaderSession, bool) {
	s, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"reader session not found"}`, http.StatusNotFound)
		return nil, false
	}
	s.SetIdentity(identityFrom(r))
	return s, true
}

func (h *ReaderHandler) recordProgress(r *http.Request, before story.Position, snap service.Snapshot) {
	if h.Progress == nil || snap.Position == before {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return
	}
	if _, err := h.Progress.RecordProgress(r.Context(), userID, snap.Position.ChapterIndex, snap.Position.SubChapterIndex); err != nil {
		log.Printf("record progress for %s: %v", userID.Hex(), err)
	}
}
