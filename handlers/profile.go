package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/stories/backend/middleware"
	"github.com/kevinaaaquil/stories/backend/models"
)

type ProfileHandler struct {
	Users Users
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	p, err := h.Users.ProfileByID(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"failed to load profile"}`, http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, `{"error":"profile not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Username != nil {
		u := strings.TrimSpace(*req.Username)
		if u == "" {
			http.Error(w, `{"error":"username cannot be empty"}`, http.StatusBadRequest)
			return
		}
		req.Username = &u
	}
	p, err := h.Users.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		http.Error(w, `{"error":"failed to update profile"}`, http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, `{"error":"profile not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
