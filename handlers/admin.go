package handlers

import (
	"bytes"
	"encoding/csv"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kevinaaaquil/stories/backend/analytics"
	"github.com/kevinaaaquil/stories/backend/models"
)

const exportLinkTTL = 15 * time.Minute

type AdminHandler struct {
	PageViews PageViews
	Exports   Exporter // nil when S3 is not configured
}

type AnalyticsResponse struct {
	Summary   analytics.Summary `json:"summary"`
	PageViews []models.PageView `json:"pageViews"`
}

type ExportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	views, err := h.PageViews.ListPageViews(r.Context(), limit)
	if err != nil {
		http.Error(w, `{"error":"failed to load analytics"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AnalyticsResponse{Summary: analytics.Summarize(views), PageViews: views})
}

// Export uploads every page view as CSV and returns a temporary link.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		http.Error(w, `{"error":"exports need AWS_S3_BUCKET"}`, http.StatusServiceUnavailable)
		return
	}
	views, err := h.PageViews.ListPageViews(r.Context(), 0)
	if err != nil {
		http.Error(w, `{"error":"failed to load analytics"}`, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := writePageViewsCSV(&buf, views); err != nil {
		http.Error(w, `{"error":"failed to build export"}`, http.StatusInternalServerError)
		return
	}
	key, err := h.Exports.Upload(r.Context(), "exports/", "page_views.csv", &buf, "text/csv")
	if err != nil {
		log.Println("export upload:", err)
		http.Error(w, `{"error":"export upload failed"}`, http.StatusBadGateway)
		return
	}
	name := "page-views-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	url, err := h.Exports.PresignedGetURL(r.Context(), key, exportLinkTTL, name)
	if err != nil {
		http.Error(w, `{"error":"could not create download link"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ExportResponse{Key: key, URL: url, ExpiresAt: time.Now().Add(exportLinkTTL)})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		http.Error(w, `{"error":"limit must be a non-negative integer"}`, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func writePageViewsCSV(buf *bytes.Buffer, views []models.PageView) error {
	cw := csv.NewWriter(buf)
	_ = cw.Write([]string{"id", "userId", "chapterIndex", "subChapterIndex", "isLoggedIn", "timeSpent", "createdAt"})
	for _, v := range views {
		user := ""
		if v.UserID != nil {
			user = v.UserID.Hex()
		}
		_ = cw.Write([]string{
			v.ID.Hex(),
			user,
			strconv.Itoa(v.ChapterIndex),
			strconv.Itoa(v.SubChapterIndex),
			strconv.FormatBool(v.IsLoggedIn),
			strconv.FormatInt(v.TimeSpent, 10),
			v.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	return cw.Error()
}
