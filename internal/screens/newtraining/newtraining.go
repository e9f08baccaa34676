package newtraining

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
	"github.com/abhisek/fitrack/internal/session"
	"github.com/abhisek/fitrack/internal/ui/components"
	"github.com/abhisek/fitrack/internal/ui/layout"
	"github.com/abhisek/fitrack/internal/ui/theme"
)

const startTimeout = 5 * time.Second

// Starter activates an exercise and returns the engine running it.
type Starter interface {
	StartTraining(ctx context.Context, exerciseID string) (*session.Engine, error)
}

type startedMsg struct {
	Engine *session.Engine
	Err    error
}

// NewTrainingScreen lets the user pick an exercise from the catalog.
type NewTrainingScreen struct {
	store    *appstate.Store
	starter  Starter
	training func(*session.Engine) screen.Screen
	menu     components.Menu
	starting bool
	errMsg   string
}

var _ screen.Screen = (*NewTrainingScreen)(nil)
var _ screen.KeyHintProvider = (*NewTrainingScreen)(nil)

// New creates the picker. training builds the screen shown once a session
// is running; it replaces the picker so Back leads home.
func New(store *appstate.Store, starter Starter, training func(*session.Engine) screen.Screen) *NewTrainingScreen {
	s := &NewTrainingScreen{store: store, starter: starter, training: training}
	s.menu = components.NewMenu(s.items(appstate.AvailableExercises(store.State())))
	return s
}

func (s *NewTrainingScreen) items(catalog []appstate.Exercise) []components.MenuItem {
	items := make([]components.MenuItem, 0, len(catalog))
	for _, ex := range catalog {
		id := ex.ID
		items = append(items, components.MenuItem{
			Label:  ex.Name,
			Detail: describe(ex),
			Action: func() tea.Cmd { return s.start(id) },
		})
	}
	return items
}

func describe(ex appstate.Exercise) string {
	return fmt.Sprintf("%s · %g kcal", formatSeconds(ex.Duration), ex.Calories)
}

func formatSeconds(sec int) string {
	if sec < 60 {
		return fmt.Sprintf("%ds", sec)
	}
	return fmt.Sprintf("%d:%02d min", sec/60, sec%60)
}

func (s *NewTrainingScreen) start(id string) tea.Cmd {
	if s.starting {
		return nil
	}
	s.starting = true
	s.errMsg = ""
	starter := s.starter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		e, err := starter.StartTraining(ctx, id)
		return startedMsg{Engine: e, Err: err}
	}
}

func (s *NewTrainingScreen) Init() tea.Cmd {
	return nil
}

func (s *NewTrainingScreen) Title() string {
	return "New Training"
}

func (s *NewTrainingScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *NewTrainingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StateMsg:
		s.menu = s.menu.SetItems(s.items(appstate.AvailableExercises(msg.Snapshot.State)))
		return s, nil

	case startedMsg:
		s.starting = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		next := s.training(msg.Engine)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	}

	if s.starting {
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *NewTrainingScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	st := s.store.State()

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render("Time to start a workout!"))

	switch {
	case len(s.menu.Items) == 0 && appstate.IsLoading(st):
		sections = append(sections, components.Centered(theme.Hint.Render("Loading exercises..."), cw))
	case len(s.menu.Items) == 0:
		sections = append(sections, components.Centered(theme.Hint.Render("No exercises available."), cw))
	default:
		sections = append(sections, s.menu.View(cw))
	}

	if s.starting {
		sections = append(sections, components.Centered(theme.Hint.Render("Starting..."), cw))
	}
	if s.errMsg != "" {
		sections = append(sections, theme.ErrorText.Width(cw).Align(lipgloss.Center).Render(s.errMsg))
	}
	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}
