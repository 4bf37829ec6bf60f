package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kevinaaaquil/stories/backend/middleware"
	"github.com/kevinaaaquil/stories/backend/story"
)

type BookmarksHandler struct {
	Bookmarks Bookmarks
	Nav       *story.Navigator
}

// Get returns the saved bookmark, or null when there is none.
func (h *BookmarksHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	b, err := h.Bookmarks.BookmarkByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"failed to load bookmark"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmark": b})
}

func (h *BookmarksHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	pos, ok := req.position()
	if !ok || !h.Nav.Valid(pos) {
		http.Error(w, `{"error":"invalid position"}`, http.StatusBadRequest)
		return
	}
	b, err := h.Bookmarks.SaveBookmark(r.Context(), userID, pos.ChapterIndex, pos.SubChapterIndex)
	if err != nil {
		log.Println("save bookmark:", err)
		http.Error(w, `{"error":"failed to save bookmark"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmark": b})
}
