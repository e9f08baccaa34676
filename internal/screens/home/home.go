package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/router"
	"github.com/abhisek/fitrack/internal/screen"
	"github.com/abhisek/fitrack/internal/ui/components"
	"github.com/abhisek/fitrack/internal/ui/theme"
)

// Deps holds what the home screen navigates to.
type Deps struct {
	Store         *appstate.Store
	NewTraining   func() screen.Screen
	PastTrainings func() screen.Screen
	Logout        func(ctx context.Context) error
}

type logoutDoneMsg struct{ Err error }

// Totals summarizes the finished history for the stats card.
type Totals struct {
	Sessions  int
	Completed int
	Seconds   float64
	Calories  float64
}

// Summarize adds up records.
func Summarize(records []appstate.FinishedRecord) Totals {
	var t Totals
	for _, r := range records {
		t.Sessions++
		if r.State == appstate.RecordCompleted {
			t.Completed++
		}
		t.Seconds += r.Duration
		t.Calories += r.Calories
	}
	return t
}

// HomeScreen is the main menu shown after sign-in.
type HomeScreen struct {
	deps   Deps
	menu   components.Menu
	errMsg string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.menu = components.NewMenu(h.items(deps.Store.State()))
	return h
}

func (h *HomeScreen) items(st appstate.State) []components.MenuItem {
	catalog := appstate.AvailableExercises(st)
	history := appstate.FinishedExercises(st)

	trainingDetail := fmt.Sprintf("%d exercises", len(catalog))
	if appstate.IsLoading(st) && len(catalog) == 0 {
		trainingDetail = "loading"
	}

	return []components.MenuItem{
		{Label: "NEW TRAINING", Detail: trainingDetail, Disabled: len(catalog) == 0, Action: func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: h.deps.NewTraining()} }
		}},
		{Label: "PAST TRAININGS", Detail: fmt.Sprintf("%d", len(history)), Action: func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: h.deps.PastTrainings()} }
		}},
		{Label: "SIGN OUT", Action: func() tea.Cmd {
			return h.logout()
		}},
		{Label: "QUIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
}

func (h *HomeScreen) logout() tea.Cmd {
	logout := h.deps.Logout
	if logout == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return logoutDoneMsg{Err: logout(ctx)}
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StateMsg:
		h.menu = h.menu.SetItems(h.items(msg.Snapshot.State))
		return h, nil
	case logoutDoneMsg:
		if msg.Err != nil {
			h.errMsg = "Sign out failed: " + msg.Err.Error()
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	st := h.deps.Store.State()

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render("What's the plan today?"))
	sections = append(sections, renderStats(Summarize(appstate.FinishedExercises(st)), cw))
	sections = append(sections, h.menu.View(cw))
	if h.errMsg != "" {
		sections = append(sections, theme.ErrorText.Width(cw).Align(lipgloss.Center).Render(h.errMsg))
	}

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func renderStats(t Totals, cw int) string {
	value := lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	stats := fmt.Sprintf("%s %s  %s %s  %s %s",
		value.Render(fmt.Sprintf("%d", t.Completed)), dim.Render("DONE"),
		value.Render(fmt.Sprintf("%.0f", t.Seconds/60)), dim.Render("MIN"),
		value.Render(fmt.Sprintf("%.0f", t.Calories)), dim.Render("KCAL"),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Render(stats)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
