package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/stories/backend/story"
)

type StoryHandler struct {
	Nav *story.Navigator
}

type StoryResponse struct {
	Title        string           `json:"title"`
	PreviewLimit int              `json:"previewLimit"`
	TOC          []story.TOCEntry `json:"toc"`
}

func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.Nav.Story()
	writeJSON(w, http.StatusOK, StoryResponse{
		Title:        s.Title,
		PreviewLimit: h.Nav.PreviewLimit(),
		TOC:          s.TOC(h.Nav.PreviewLimit()),
	})
}
