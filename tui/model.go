// Package tui is the terminal story reader built on bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kevinaaaquil/stories/backend/client"
	"github.com/kevinaaaquil/stories/backend/handlers"
	"github.com/kevinaaaquil/stories/backend/service"
	"github.com/kevinaaaquil/stories/backend/story"
)

const (
	requestTimeout = 10 * time.Second
	sidebarWidth   = 34
)

// API is the part of the stories client the reader uses.
type API interface {
	Story(ctx context.Context) (*handlers.StoryResponse, error)
	OpenSession(ctx context.Context) (service.Snapshot, error)
	Next(ctx context.Context) (service.Snapshot, error)
	Prev(ctx context.Context) (service.Snapshot, error)
	Jump(ctx context.Context, p story.Position) (service.Snapshot, error)
	SetNavigation(ctx context.Context, open bool) (service.Snapshot, error)
	DismissSignup(ctx context.Context) (service.Snapshot, error)
	Bookmark(ctx context.Context) (service.Snapshot, error)
	Resume(ctx context.Context) (service.Snapshot, error)
	Login(ctx context.Context, email, password string) (*handlers.AuthResponse, error)
	Signup(ctx context.Context, email, password, username, fullName string) (*handlers.AuthResponse, error)
	Signout(ctx context.Context) (service.Snapshot, error)
}

type startedMsg struct {
	story *handlers.StoryResponse
	snap  service.Snapshot
	err   error
}

type snapshotMsg struct {
	snap   service.Snapshot
	err    error
	status string
}

type authMsg struct {
	resp *handlers.AuthResponse
	err  error
}

type Model struct {
	api API

	story *handlers.StoryResponse
	snap  service.Snapshot
	ready bool

	vp        viewport.Model
	tocCursor int
	form      *authForm

	email  string
	status string
	err    error

	width  int
	height int
}

func New(api API) Model {
	return Model{api: api, vp: viewport.New(80, 20), width: 80, height: 24}
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := m.api.Story(ctx)
		if err != nil {
			return startedMsg{err: err}
		}
		snap, err := m.api.OpenSession(ctx)
		return startedMsg{story: st, snap: snap, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.story, m.ready = msg.story, true
		m.setSnapshot(msg.snap)
		return m, nil

	case snapshotMsg:
		if msg.err != nil && !errors.Is(msg.err, client.ErrSignupRequired) {
			m.status = errorStyle.Render(msg.err.Error())
			return m, nil
		}
		m.status = msg.status
		if msg.err != nil {
			m.status = ""
		}
		m.setSnapshot(msg.snap)
		return m, nil

	case authMsg:
		if m.form == nil {
			return m, nil
		}
		if msg.err != nil {
			m.form.err = msg.err.Error()
			return m, nil
		}
		m.form = nil
		m.email = msg.resp.User.Email
		m.status = "signed in as " + m.email
		if msg.resp.Reader != nil {
			m.setSnapshot(*msg.resp.Reader)
		}
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateReader(msg)
	}
	return m, nil
}

func (m Model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.ready {
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}
	m.status = ""
	toc := m.story.TOC
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "right", "l":
		return m, m.call(m.api.Next, "")
	case "left", "h":
		return m, m.call(m.api.Prev, "")
	case "t":
		open := !m.snap.NavigationOpen
		return m, m.call(func(ctx context.Context) (service.Snapshot, error) {
			return m.api.SetNavigation(ctx, open)
		}, "")
	case "up", "k":
		if m.snap.NavigationOpen {
			if m.tocCursor > 0 {
				m.tocCursor--
			}
			return m, nil
		}
	case "down", "j":
		if m.snap.NavigationOpen {
			if m.tocCursor < len(toc)-1 {
				m.tocCursor++
			}
			return m, nil
		}
	case "enter":
		if m.snap.NavigationOpen && m.tocCursor < len(toc) {
			target := toc[m.tocCursor].Position
			return m, m.call(func(ctx context.Context) (service.Snapshot, error) {
				return m.api.Jump(ctx, target)
			}, "")
		}
		return m, nil
	case "b":
		return m, m.call(m.api.Bookmark, "bookmark saved")
	case "r":
		return m, m.call(m.api.Resume, "resumed from bookmark")
	case "s":
		if !m.snap.SignedIn {
			m.form = newAuthForm(signInForm, false)
		}
		return m, nil
	case "u":
		if !m.snap.SignedIn {
			m.form = newAuthForm(signUpForm, false)
		}
		return m, nil
	case "o":
		if m.snap.SignedIn {
			m.email = ""
			return m, m.call(m.api.Signout, "signed out")
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.form = nil
		if f.prompted {
			return m, m.call(m.api.DismissSignup, "")
		}
		return m, nil
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "enter":
		if !f.complete() {
			if !f.onLast() {
				f.move(1)
			}
			return m, nil
		}
		return m, m.submit(f)
	}
	return m, f.update(msg)
}

func (m Model) submit(f *authForm) tea.Cmd {
	email, password := f.value(0), f.inputs[1].Value()
	username, fullName := f.value(2), f.value(3)
	mode := f.mode
	f.err = ""
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var resp *handlers.AuthResponse
		var err error
		if mode == signUpForm {
			resp, err = m.api.Signup(ctx, email, password, username, fullName)
		} else {
			resp, err = m.api.Login(ctx, email, password)
		}
		return authMsg{resp: resp, err: err}
	}
}

func (m Model) call(fn func(ctx context.Context) (service.Snapshot, error), status string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := fn(ctx)
		return snapshotMsg{snap: snap, err: err, status: status}
	}
}

// setSnapshot applies server state. The signup interrupt opens the sign-up
// form.
func (m *Model) setSnapshot(snap service.Snapshot) {
	moved := snap.Position != m.snap.Position
	navOpened := snap.NavigationOpen && !m.snap.NavigationOpen
	m.snap = snap
	if !snap.SignedIn {
		m.email = ""
	}
	if navOpened {
		m.tocCursor = m.currentTOCIndex()
	}
	if snap.SignupRequired && m.form == nil {
		m.form = newAuthForm(signUpForm, true)
	}
	m.layout()
	if moved {
		m.vp.GotoTop()
	}
}

func (m *Model) layout() {
	w := m.width
	if m.snap.NavigationOpen {
		w -= sidebarWidth + 2
	}
	m.vp.Width = max(w, 20)
	m.vp.Height = max(m.height-4, 3)
	m.vp.SetContent(m.renderPage())
}

func (m Model) currentTOCIndex() int {
	if m.story == nil {
		return 0
	}
	best := 0
	for i, e := range m.story.TOC {
		if e.Position == m.snap.Position {
			best = i
		}
	}
	return best
}

func (m Model) renderPage() string {
	page := m.snap.Page
	var b strings.Builder
	b.WriteString(titleStyle.Render(page.Title))
	if page.ChapterTitle != "" && page.ChapterTitle != page.Title {
		b.WriteString("\n" + chapterStyle.Render(page.ChapterTitle))
	}
	body := lipgloss.NewStyle().Width(max(m.vp.Width-2, 10))
	for _, p := range page.Paragraphs {
		b.WriteString("\n\n")
		b.WriteString(body.Render(p))
	}
	return b.String()
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	for i, e := range m.story.TOC {
		line := e.Title
		if e.Level > 0 {
			line = "  " + line
		}
		if e.Gated && !m.snap.SignedIn {
			line += " *"
		}
		line = truncate(line, sidebarWidth-2)
		switch {
		case i == m.tocCursor:
			line = cursorStyle.Render(line)
		case e.Position == m.snap.Position:
			line = currentStyle.Render(line)
		case e.Gated && !m.snap.SignedIn:
			line = gatedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return sidebarStyle.Width(sidebarWidth).Height(m.vp.Height).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("\n  " + m.err.Error() + "\n")
	}
	if !m.ready {
		return "\n  Loading…\n"
	}
	if m.form != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.view())
	}

	who := "reading anonymously"
	if m.snap.SignedIn {
		who = "signed in"
		if m.email != "" {
			who += " as " + m.email
		}
	}
	header := titleStyle.Render(m.story.Title) + statusStyle.Render(fmt.Sprintf("%s | %s", m.snap.Position, who))

	body := m.vp.View()
	if m.snap.NavigationOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", body)
	}

	status := m.status
	if status == "" {
		status = statusStyle.Render(navHint(m.snap))
	}
	controls := controlsStyle.Render("←/→: page  T: contents  B: bookmark  R: resume  S/U: sign in/up  O: sign out  Q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, controls)
}

func navHint(s service.Snapshot) string {
	var parts []string
	if s.CanGoBack {
		parts = append(parts, "← back")
	}
	if s.CanGoForward {
		parts = append(parts, "next →")
	} else {
		parts = append(parts, "the end")
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
