package app

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/core"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/router"
	"github.com/abhisek/fitrack/internal/screen"
	"github.com/abhisek/fitrack/internal/screens/history"
	"github.com/abhisek/fitrack/internal/screens/home"
	"github.com/abhisek/fitrack/internal/screens/login"
	"github.com/abhisek/fitrack/internal/screens/newtraining"
	"github.com/abhisek/fitrack/internal/screens/training"
	"github.com/abhisek/fitrack/internal/screens/welcome"
	"github.com/abhisek/fitrack/internal/session"
	"github.com/abhisek/fitrack/internal/ui/layout"
)

type toastMsg notify.Notification

type toastExpiredMsg struct{ seq int }

// AppModel is the root Bubble Tea model.
type AppModel struct {
	core   *core.Core
	sub    *appstate.Subscription
	toasts <-chan notify.Notification
	router *router.Router
	authed bool

	toast    *notify.Notification
	toastSeq int

	width  int
	height int
}

// newAppModel creates an AppModel starting on the welcome splash.
func newAppModel(c *core.Core, toasts <-chan notify.Notification) AppModel {
	m := AppModel{
		core:   c,
		sub:    c.Store.Subscribe(),
		toasts: toasts,
		authed: appstate.IsAuth(c.Store.State()),
	}
	m.router = router.New(welcome.New(m.entryScreen))
	return m
}

func (m AppModel) entryScreen() screen.Screen {
	if appstate.IsAuth(m.core.Store.State()) {
		return m.homeScreen()
	}
	return login.New(m.core)
}

func (m AppModel) homeScreen() screen.Screen {
	return home.New(home.Deps{
		Store: m.core.Store,
		NewTraining: func() screen.Screen {
			return newtraining.New(m.core.Store, m.core, func(e *session.Engine) screen.Screen {
				return training.New(e)
			})
		},
		PastTrainings: func() screen.Screen { return history.New(m.core.Store) },
		Logout:        m.core.Logout,
	})
}

func waitState(sub *appstate.Subscription) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub.C()
		if !ok {
			return nil
		}
		return screen.StateMsg{Snapshot: snap}
	}
}

func waitToast(ch <-chan notify.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return toastMsg(n)
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), waitState(m.sub), waitToast(m.toasts))
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.StateMsg:
		cmds := []tea.Cmd{waitState(m.sub)}
		authed := appstate.IsAuth(msg.Snapshot.State)
		if authed != m.authed {
			m.authed = authed
			if authed {
				cmds = append(cmds, m.router.Reset(m.homeScreen()))
			} else {
				cmds = append(cmds, m.router.Reset(login.New(m.core)))
			}
			return m, tea.Batch(cmds...)
		}
		cmds = append(cmds, m.router.Update(msg))
		return m, tea.Batch(cmds...)

	case toastMsg:
		n := notify.Notification(msg)
		m.toast = &n
		m.toastSeq++
		seq := m.toastSeq
		d := n.Duration
		if d <= 0 {
			d = notify.DefaultDuration
		}
		return m, tea.Batch(
			waitToast(m.toasts),
			tea.Tick(d, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} }),
		)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) status() string {
	u, ok := m.core.Auth.User()
	if !ok {
		return "signed out"
	}
	if appstate.IsTraining(m.core.Store.State()) {
		return "● " + u.Email
	}
	return u.Email
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	frame := layout.Frame{
		Header: layout.RenderHeader(title, m.status(), m.width),
		Footer: layout.RenderFooter(m.footerHints(active), m.width),
	}
	if m.toast != nil {
		frame.Toast = layout.RenderToast(m.toast.Message, m.toast.Action, m.width)
	}

	content := m.router.View(m.width, frame.ContentHeight(m.height))
	return frame.Render(content, m.width, m.height)
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program on c and blocks until the user quits or
// ctx is done. toasts may be nil.
func Run(ctx context.Context, c *core.Core, toasts <-chan notify.Notification) error {
	m := newAppModel(c, toasts)
	defer m.sub.Cancel()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	}
	return nil
}
