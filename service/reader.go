package service

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/stories/backend/analytics"
	"github.com/kevinaaaquil/stories/backend/story"
)

var ErrSessionNotFound = errors.New("reader session not found")

// Identity is who is reading. The zero value is an anonymous reader.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) SignedIn() bool { return i.UserID != "" }

// Snapshot is the reader state returned to clients after every action.
type Snapshot struct {
	SessionID      string         `json:"sessionId"`
	Position       story.Position `json:"position"`
	Page           story.Page     `json:"page"`
	CanGoBack      bool           `json:"canGoBack"`
	CanGoForward   bool           `json:"canGoForward"`
	SignupRequired bool           `json:"signupRequired"`
	NavigationOpen bool           `json:"navigationOpen"`
	SignedIn       bool           `json:"signedIn"`
}

// ReaderSessions keeps the live reading sessions in memory.
type ReaderSessions struct {
	nav     *story.Navigator
	tracker *analytics.Tracker
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*ReaderSession
}

func NewReaderSessions(nav *story.Navigator, tracker *analytics.Tracker) *ReaderSessions {
	return &ReaderSessions{
		nav:      nav,
		tracker:  tracker,
		now:      time.Now,
		sessions: make(map[string]*ReaderSession),
	}
}

func (rs *ReaderSessions) Navigator() *story.Navigator { return rs.nav }

// Create starts a session at the prologue and opens its first page view.
func (rs *ReaderSessions) Create(id Identity) *ReaderSession {
	s := &ReaderSession{
		id:       uuid.New().String(),
		owner:    rs,
		pos:      story.Start,
		identity: id,
		lastSeen: rs.now(),
	}
	s.openView()
	rs.mu.Lock()
	rs.sessions[s.id] = s
	rs.mu.Unlock()
	return s
}

func (rs *ReaderSessions) Get(id string) (*ReaderSession, error) {
	rs.mu.RLock()
	s, ok := rs.sessions[id]
	rs.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Close ends the session and its current page view.
func (rs *ReaderSessions) Close(id string) error {
	rs.mu.Lock()
	s, ok := rs.sessions[id]
	delete(rs.sessions, id)
	rs.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	return nil
}

// Sweep closes sessions idle for longer than maxIdle and reports how many
// were removed.
func (rs *ReaderSessions) Sweep(maxIdle time.Duration) int {
	cutoff := rs.now().Add(-maxIdle)
	var idle []*ReaderSession
	rs.mu.Lock()
	for id, s := range rs.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(rs.sessions, id)
		}
	}
	rs.mu.Unlock()
	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		log.Printf("reader: swept %d idle sessions", len(idle))
	}
	return len(idle)
}

func (rs *ReaderSessions) CloseAll() {
	rs.mu.Lock()
	all := rs.sessions
	rs.sessions = make(map[string]*ReaderSession)
	rs.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

func (rs *ReaderSessions) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.sessions)
}

// ReaderSession is one reader's position in the story plus the page view
// that brackets it. Every position change closes the current page view
// before the next one is opened.
type ReaderSession struct {
	id    string
	owner *ReaderSessions

	mu           sync.Mutex
	pos          story.Position
	identity     Identity
	navOpen      bool
	signupPrompt bool
	view         *analytics.View
	lastSeen     time.Time
	closed       bool
}

func (s *ReaderSession) ID() string { return s.id }

func (s *ReaderSession) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *ReaderSession) Position() story.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *ReaderSession) Next() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.owner.nav.Next(s.pos, s.identity.SignedIn()))
	return s.snapshotLocked()
}

func (s *ReaderSession) Prev() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.owner.nav.Prev(s.pos))
	return s.snapshotLocked()
}

// Jump moves to a sidebar selection and closes the sidebar when the move
// is allowed.
func (s *ReaderSession) Jump(target story.Position) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.owner.nav.Jump(s.pos, target, s.identity.SignedIn())
	if err != nil {
		return s.snapshotLocked(), err
	}
	if !res.SignupRequired {
		s.navOpen = false
	}
	s.apply(res)
	return s.snapshotLocked(), nil
}

// SetIdentity attaches or detaches the signed-in user. A change reopens the
// current page view so analytics attribute the rest of the visit correctly.
// Signing in clears a pending signup prompt.
func (s *ReaderSession) SetIdentity(id Identity) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.identity {
		s.identity = id
		if id.SignedIn() {
			s.signupPrompt = false
		}
		s.closeView()
		s.openView()
	}
	return s.snapshotLocked()
}

func (s *ReaderSession) SetNavigationOpen(open bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navOpen = open
	return s.snapshotLocked()
}

// PromptSignup raises the signup prompt without moving, for actions such
// as bookmarking that anonymous readers may not take.
func (s *ReaderSession) PromptSignup() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signupPrompt = true
	return s.snapshotLocked()
}

func (s *ReaderSession) DismissSignup() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signupPrompt = false
	return s.snapshotLocked()
}

func (s *ReaderSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ReaderSession) apply(res story.Result) {
	if res.SignupRequired {
		s.signupPrompt = true
	}
	if res.Moved {
		s.closeView()
		s.pos = res.Position
		s.openView()
	}
}

func (s *ReaderSession) snapshotLocked() Snapshot {
	nav := s.owner.nav
	return Snapshot{
		SessionID:      s.id,
		Position:       s.pos,
		Page:           nav.Resolve(s.pos),
		CanGoBack:      !nav.IsFirst(s.pos),
		CanGoForward:   !nav.IsLast(s.pos),
		SignupRequired: s.signupPrompt,
		NavigationOpen: s.navOpen,
		SignedIn:       s.identity.SignedIn(),
	}
}

// openView is a no-op once the session has been closed, so a caller still
// holding a removed session cannot leave a page view behind.
func (s *ReaderSession) openView() {
	if s.closed {
		return
	}
	s.view = s.owner.tracker.Open(analytics.Visit{
		UserID:          s.identity.UserID,
		ChapterIndex:    s.pos.ChapterIndex,
		SubChapterIndex: s.pos.SubChapterIndex,
		LoggedIn:        s.identity.SignedIn(),
	})
}

func (s *ReaderSession) closeView() {
	if s.view != nil {
		s.view.Close()
		s.view = nil
	}
}

func (s *ReaderSession) touch() {
	s.mu.Lock()
	s.lastSeen = s.owner.now()
	s.mu.Unlock()
}

func (s *ReaderSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *ReaderSession) close() {
	s.mu.Lock()
	s.closed = true
	s.closeView()
	s.mu.Unlock()
}
