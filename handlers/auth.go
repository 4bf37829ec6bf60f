package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/kevinaaaquil/stories/backend/middleware"
	"github.com/kevinaaaquil/stories/backend/models"
	"github.com/kevinaaaquil/stories/backend/service"
	"github.com/kevinaaaquil/stories/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type AuthHandler struct {
	Users     Users
	Sessions  *service.ReaderSessions
	JWTSecret string
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Token   string            `json:"token"`
	User    UserResponse      `json:"user"`
	Profile *models.Profile   `json:"profile,omitempty"`
	Reader  *service.Snapshot `json:"reader,omitempty"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		http.Error(w, `{"error":"a valid email is required"}`, http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLen {
		http.Error(w, `{"error":"password must be at least 6 characters"}`, http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, `{"error":"signup failed"}`, http.StatusInternalServerError)
		return
	}
	now := time.Now()
	user := &models.User{Email: email, Password: string(hash), CreatedAt: now}
	id, err := h.Users.CreateUser(r.Context(), user)
	if errors.Is(err, store.ErrAlreadyExists) {
		http.Error(w, `{"error":"account already exists"}`, http.StatusConflict)
		return
	}
	if err != nil {
		log.Println("signup:", err)
		http.Error(w, `{"error":"signup failed"}`, http.StatusInternalServerError)
		return
	}
	user.ID = id

	profile := &models.Profile{
		ID:        id,
		Username:  username,
		FullName:  strings.TrimSpace(req.FullName),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Users.CreateProfile(r.Context(), profile); err != nil {
		// the account exists; the profile can be filled in later
		log.Printf("signup: create profile for %s: %v", id.Hex(), err)
		profile = nil
	}
	h.respond(w, r, http.StatusCreated, user, profile)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	user, err := h.Users.UserByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
		return
	}
	h.respond(w, r, http.StatusOK, user, nil)
}

// Signout detaches the user from the reader session named in the
// X-Reader-Session header. Tokens are stateless; the client drops its copy.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.attach(r, service.Identity{}); ok {
		writeJSON(w, http.StatusOK, map[string]any{"reader": snap})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the signed-in user, or null for anonymous callers.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	user, err := h.Users.UserByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to load session"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": UserResponse{ID: user.ID.Hex(), Email: user.Email}})
}

func (h *AuthHandler) respond(w http.ResponseWriter, r *http.Request, code int, user *models.User, profile *models.Profile) {
	token, err := middleware.NewToken(h.JWTSecret, user.ID.Hex(), user.Email)
	if err != nil {
		http.Error(w, `{"error":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	resp := AuthResponse{
		Token:   token,
		User:    UserResponse{ID: user.ID.Hex(), Email: user.Email},
		Profile: profile,
	}
	if snap, ok := h.attach(r, identityOf(user.ID, user.Email)); ok {
		resp.Reader = &snap
	}
	writeJSON(w, code, resp)
}

func (h *AuthHandler) attach(r *http.Request, id service.Identity) (service.Snapshot, bool) {
	sid := r.Header.Get(SessionHeader)
	if sid == "" || h.Sessions == nil {
		return service.Snapshot{}, false
	}
	s, err := h.Sessions.Get(sid)
	if err != nil {
		return service.Snapshot{}, false
	}
	return s.SetIdentity(id), true
}

func identityOf(id primitive.ObjectID, email string) service.Identity {
	return service.Identity{UserID: id.Hex(), Email: email}
}
