package login

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/fitrack/internal/auth"
	"github.com/abhisek/fitrack/internal/screen"
	"github.com/abhisek/fitrack/internal/ui/components"
	"github.com/abhisek/fitrack/internal/ui/layout"
	"github.com/abhisek/fitrack/internal/ui/theme"
)

const submitTimeout = 10 * time.Second

// Authenticator signs users in. The app switches screens once the store
// reports the new auth state, so a successful call needs no follow-up here.
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (auth.User, error)
	Register(ctx context.Context, creds auth.Credentials) (auth.User, error)
}

type authDoneMsg struct {
	User auth.User
	Err  error
}

const (
	fieldEmail = iota
	fieldPassword
)

// LoginScreen collects credentials for login or sign-up.
type LoginScreen struct {
	auth     Authenticator
	email    components.TextInput
	password components.TextInput
	focus    int
	register bool
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a LoginScreen backed by a.
func New(a Authenticator) *LoginScreen {
	s := &LoginScreen{
		auth:     a,
		email:    components.NewTextInput("Email", "you@example.com", false, 254),
		password: components.NewTextInput("Password", "", true, 128),
	}
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	return tea.Batch(s.email.Init(), s.email.Focus())
}

func (s *LoginScreen) Title() string {
	if s.register {
		return "Sign Up"
	}
	return "Login"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	other := "Sign up"
	if s.register {
		other = "Login"
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl+R", Description: other},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = describe(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.password.SetValue("")
		return s, nil

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "ctrl+r":
			s.register = !s.register
			s.errMsg = ""
			return s, nil
		case "tab", "down":
			return s, s.setFocus((s.focus + 1) % 2)
		case "shift+tab", "up":
			return s, s.setFocus((s.focus + 1) % 2)
		case "enter":
			if s.focus == fieldEmail {
				return s, s.setFocus(fieldPassword)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	if s.focus == fieldEmail {
		s.email, cmd = s.email.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

func (s *LoginScreen) setFocus(field int) tea.Cmd {
	s.focus = field
	if field == fieldEmail {
		s.password.Blur()
		return s.email.Focus()
	}
	s.email.Blur()
	return s.password.Focus()
}

func (s *LoginScreen) submit() tea.Cmd {
	creds := auth.Credentials{
		Email:    strings.TrimSpace(s.email.Value()),
		Password: s.password.Value(),
	}
	if creds.Email == "" || creds.Password == "" {
		s.errMsg = "Email and password are required"
		return nil
	}
	s.busy = true
	s.errMsg = ""
	a, register := s.auth, s.register
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		var (
			u   auth.User
			err error
		)
		if register {
			u, err = a.Register(ctx, creds)
		} else {
			u, err = a.Login(ctx, creds)
		}
		return authDoneMsg{User: u, Err: err}
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, context.DeadlineExceeded):
		return "Signing in timed out, please try again"
	default:
		return err.Error()
	}
}

func (s *LoginScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if cw > 48 {
		cw = 48
	}

	heading := "Welcome back"
	if s.register {
		heading = "Create your account"
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render(heading))
	b.WriteString("\n\n")
	b.WriteString(s.email.View())
	b.WriteString("\n\n")
	b.WriteString(s.password.View())
	b.WriteString("\n\n")
	switch {
	case s.busy:
		b.WriteString(theme.Hint.Render("Signing in..."))
	case s.errMsg != "":
		b.WriteString(theme.ErrorText.Render(s.errMsg))
	}

	card := theme.Card.Width(cw).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
