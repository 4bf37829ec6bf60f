package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/stories/backend/middleware"
	"github.com/kevinaaaquil/stories/backend/story"
)

type PreferencesHandler struct {
	Prefs Preferences
	Nav   *story.Navigator
}

type preferencesRequest struct {
	FontSize string `json:"fontSize"`
	Theme    string `json:"theme"`
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	p, err := h.Prefs.PreferencesByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"failed to load preferences"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	fontSize, theme := strings.TrimSpace(req.FontSize), strings.TrimSpace(req.Theme)
	if fontSize == "" && theme == "" {
		http.Error(w, `{"error":"fontSize or theme required"}`, http.StatusBadRequest)
		return
	}
	p, err := h.Prefs.UpdatePreferences(r.Context(), userID, fontSize, theme)
	if err != nil {
		http.Error(w, `{"error":"failed to update preferences"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PreferencesHandler) Progress(w http.ResponseWriter, r *http.Request) {
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
	p, err := h.Prefs.RecordProgress(r.Context(), userID, pos.ChapterIndex, pos.SubChapterIndex)
	if err != nil {
		http.Error(w, `{"error":"failed to record progress"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
