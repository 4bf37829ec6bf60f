// Package client talks to the stories API on behalf of the terminal reader.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kevinaaaquil/stories/backend/handlers"
	"github.com/kevinaaaquil/stories/backend/service"
	"github.com/kevinaaaquil/stories/backend/story"
)

// ErrSignupRequired is returned when the server refuses an action for an
// anonymous reader. The reader state that comes with it is still decoded.
var ErrSignupRequired = errors.New("sign up required")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	sessionID string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Token() string     { return c.token }
func (c *Client) SetToken(t string) { c.token = t }
func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) Story(ctx context.Context) (*handlers.StoryResponse, error) {
	var out handlers.StoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/story", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenSession starts a reader session and remembers its id.
func (c *Client) OpenSession(ctx context.Context) (service.Snapshot, error) {
	var snap service.Snapshot
	if err := c.do(ctx, http.MethodPost, "/api/reader/sessions", nil, &snap); err != nil {
		return snap, err
	}
	c.sessionID = snap.SessionID
	return snap, nil
}

func (c *Client) CloseSession(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	err := c.do(ctx, http.MethodDelete, c.sessionPath(""), nil, nil)
	c.sessionID = ""
	return err
}

func (c *Client) Snapshot(ctx context.Context) (service.Snapshot, error) {
	return c.readerCall(ctx, http.MethodGet, "", nil)
}

func (c *Client) Next(ctx context.Context) (service.Snapshot, error) {
	return c.readerCall(ctx, http.MethodPost, "next", nil)
}

func (c *Client) Prev(ctx context.Context) (service.Snapshot, error) {
	return c.readerCall(ctx, http.MethodPost, "prev", nil)
}

func (c *Client) Jump(ctx context.Context, p story.Position) (service.Snapshot, error) {
	return c.readerCall(ctx, http.MethodPost, "jump", p)
}

func (c *Client) SetNavigation(ctx context.Context, open bool) (service.Snapshot, error) {
	return c.readerCall(ctx, http.MethodPost, "navigation", map[string]bool{"open": open})
}

func (c *Client) DismissSignup(ctx context.Context) (service.Snapshot, error) {
	return c.readerCall(ctx, http.MethodPost, "dismiss-signup", nil)
}

func (c *Client) Resume(ctx context.Context) (service.Snapshot, error) {
	return c.readerCall(ctx, http.MethodPost, "resume", nil)
}

// Bookmark saves the current position.
func (c *Client) Bookmark(ctx context.Context) (service.Snapshot, error) {
	var out struct {
		Reader service.Snapshot `json:"reader"`
	}
	err := c.do(ctx, http.MethodPost, c.sessionPath("bookmark"), nil, &out)
	return out.Reader, err
}

func (c *Client) Signup(ctx context.Context, email, password, username, fullName string) (*handlers.AuthResponse, error) {
	return c.auth(ctx, "/api/auth/signup", handlers.SignupRequest{
		Email: email, Password: password, Username: username, FullName: fullName,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (*handlers.AuthResponse, error) {
	return c.auth(ctx, "/api/auth/login", handlers.LoginRequest{Email: email, Password: password})
}

// Signout forgets the token and detaches the reader session from the user.
func (c *Client) Signout(ctx context.Context) (service.Snapshot, error) {
	c.token = ""
	var out struct {
		Reader service.Snapshot `json:"reader"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, &out)
	return out.Reader, err
}

func (c *Client) auth(ctx context.Context, path string, body any) (*handlers.AuthResponse, error) {
	var out handlers.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// readerReply decodes both a bare snapshot and the {"error","reader"}
// envelope sent with a refused action.
type readerReply struct {
	service.Snapshot
	Reader *service.Snapshot `json:"reader"`
}

func (c *Client) readerCall(ctx context.Context, method, action string, body any) (service.Snapshot, error) {
	var out readerReply
	err := c.do(ctx, method, c.sessionPath(action), body, &out)
	if out.Reader != nil {
		return *out.Reader, err
	}
	return out.Snapshot, err
}

func (c *Client) sessionPath(action string) string {
	p := "/api/reader/sessions/" + c.sessionID
	if action != "" {
		p += "/" + action
	}
	return p
}

// do sends body as JSON and decodes the response into out. On a 401 that
// carries reader state, out still receives it and ErrSignupRequired is
// returned.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.sessionID != "" {
		req.Header.Set(handlers.SessionHeader, c.sessionID)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var e struct {
			Error  string          `json:"error"`
			Reader json.RawMessage `json:"reader"`
		}
		_ = json.Unmarshal(data, &e)
		if resp.StatusCode == http.StatusUnauthorized && len(e.Reader) > 0 && out != nil {
			_ = json.Unmarshal(data, out)
			return ErrSignupRequired
		}
		if e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
