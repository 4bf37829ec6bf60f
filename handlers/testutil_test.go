package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/stories/backend/analytics"
	"github.com/kevinaaaquil/stories/backend/handlers"
	"github.com/kevinaaaquil/stories/backend/models"
	"github.com/kevinaaaquil/stories/backend/service"
	"github.com/kevinaaaquil/stories/backend/store"
	"github.com/kevinaaaquil/stories/backend/story"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testSecret    = "test-secret"
	adminEmail    = "admin@example.com"
	adminPassword = "admin-pass"
)

type memStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	profiles  map[primitive.ObjectID]*models.Profile
	bookmarks map[primitive.ObjectID]*models.Bookmark
	prefs     map[primitive.ObjectID]*models.UserPreferences
	views     []models.PageView
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*models.User),
		profiles:  make(map[primitive.ObjectID]*models.Profile),
		bookmarks: make(map[primitive.ObjectID]*models.Bookmark),
		prefs:     make(map[primitive.ObjectID]*models.UserPreferences),
	}
}

func (m *memStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email], nil
}

func (m *memStore) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return primitive.NilObjectID, store.ErrAlreadyExists
	}
	user.ID = primitive.NewObjectID()
	m.users[user.Email] = user
	return user.ID, nil
}

func (m *memStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *memStore) ProfileByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[id], nil
}

func (m *memStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, u models.ProfileUpdate) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	return p, nil
}

func (m *memStore) SaveBookmark(ctx context.Context, userID primitive.ObjectID, chapter, subChapter int) (*models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookmarks[userID]
	if !ok {
		b = &models.Bookmark{ID: primitive.NewObjectID(), UserID: userID, CreatedAt: time.Now()}
		m.bookmarks[userID] = b
	}
	b.ChapterIndex, b.SubChapterIndex, b.UpdatedAt = chapter, subChapter, time.Now()
	return b, nil
}

func (m *memStore) BookmarkByUser(ctx context.Context, userID primitive.ObjectID) (*models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookmarks[userID], nil
}

func (m *memStore) prefsFor(userID primitive.ObjectID) *models.UserPreferences {
	p, ok := m.prefs[userID]
	if !ok {
		p = &models.UserPreferences{UserID: userID, FontSize: models.DefaultFontSize, Theme: models.DefaultTheme, LastReadSubChapter: -1}
		m.prefs[userID] = p
	}
	return p
}

func (m *memStore) PreferencesByUser(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefsFor(userID), nil
}

func (m *memStore) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, fontSize, theme string) (*models.UserPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.prefsFor(userID)
	if fontSize != "" {
		p.FontSize = fontSize
	}
	if theme != "" {
		p.Theme = theme
	}
	return p, nil
}

func (m *memStore) RecordProgress(ctx context.Context, userID primitive.ObjectID, chapter, subChapter int) (*models.UserPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.prefsFor(userID)
	p.LastReadChapter, p.LastReadSubChapter = chapter, subChapter
	if p.ReadingProgress == nil {
		p.ReadingProgress = make(map[string]int64)
	}
	p.ReadingProgress[fmt.Sprintf("%d-%d", chapter, subChapter)] = time.Now().UnixMilli()
	return p, nil
}

func (m *memStore) ListPageViews(ctx context.Context, limit int64) ([]models.PageView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.views
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type nopRecorder struct{}

func (nopRecorder) OpenPageView(ctx context.Context, v analytics.Visit) (string, error) {
	return "pv", nil
}
func (nopRecorder) CheckpointPageView(ctx context.Context, id string, seconds int64) error {
	return nil
}
func (nopRecorder) ClosePageView(ctx context.Context, id string, seconds int64) error { return nil }

type memExporter struct {
	uploaded map[string][]byte
}

func (e *memExporter) Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	key := prefix + "export.csv"
	e.uploaded[key] = b
	return key, nil
}

func (e *memExporter) PresignedGetURL(ctx context.Context, key string, expiry time.Duration, filename string) (string, error) {
	return "https://exports.example.com/" + key, nil
}

type testServer struct {
	handler http.Handler
	store   *memStore
}

func newTestServer(t *testing.T, exports handlers.Exporter) *testServer {
	t.Helper()
	st := newMemStore()
	tracker := analytics.NewTracker(nopRecorder{}, analytics.WithCheckpointInterval(0))
	sessions := service.NewReaderSessions(story.NewNavigator(story.Default()), tracker)
	t.Cleanup(sessions.CloseAll)
	h := handlers.NewRouter(handlers.Options{
		Store:         st,
		Sessions:      sessions,
		Exports:       exports,
		JWTSecret:     testSecret,
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	return &testServer{handler: h, store: st}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return v
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *testServer) signup(t *testing.T, email string, headers map[string]string) handlers.AuthResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": email, "password": "secret123", "username": "reader", "fullName": "A Reader",
	}, headers)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	return decode[handlers.AuthResponse](t, w)
}
