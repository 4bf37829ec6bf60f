package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formMode int

const (
	signInForm formMode = iota
	signUpForm
)

// authForm collects credentials for sign in or sign up.
type authForm struct {
	mode   formMode
	inputs []textinput.Model
	focus  int
	// prompted is set when the form was raised by the signup interrupt.
	prompted bool
	err      string
}

func newAuthForm(mode formMode, prompted bool) *authForm {
	fields := []string{"email", "password"}
	if mode == signUpForm {
		fields = append(fields, "username", "full name")
	}
	f := &authForm{mode: mode, prompted: prompted}
	for i, name := range fields {
		in := textinput.New()
		in.Placeholder = name
		in.Prompt = "> "
		in.CharLimit = 128
		if name == "password" {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		if i == 0 {
			in.Focus()
		}
		f.inputs = append(f.inputs, in)
	}
	return f
}

func (f *authForm) title() string {
	if f.mode == signUpForm {
		return "Sign up to keep reading"
	}
	return "Sign in"
}

func (f *authForm) value(i int) string {
	if i >= len(f.inputs) {
		return ""
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

// complete reports whether the required fields are filled in.
func (f *authForm) complete() bool {
	return f.value(0) != "" && f.inputs[1].Value() != ""
}

func (f *authForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// onLast reports whether the cursor is in the last field.
func (f *authForm) onLast() bool { return f.focus == len(f.inputs)-1 }

func (f *authForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *authForm) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title()))
	b.WriteString("\n\n")
	for _, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	b.WriteString("\n" + controlsStyle.Render("TAB: next field  ENTER: submit  ESC: cancel"))
	return modalStyle.Render(b.String())
}
