package training

import (
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

const pollInterval = 100 * time.Millisecond

// Engine is the part of *session.Engine the screen drives.
type Engine interface {
	Status() session.Status
	Pause() (int, error)
	Decide(d session.Decision) error
	Done() <-chan struct{}
	Result() (rec appstate.FinishedRecord, ok bool, err error)
}

type pollMsg time.Time

type doneMsg struct{}

type decidedMsg struct {
	Decision session.Decision
	Err      error
}

// TrainingScreen shows the running session. Stopping pauses the timer and
// asks whether to resume or stop for good.
type TrainingScreen struct {
	engine   Engine
	status   session.Status
	confirm  bool
	buttons  components.ButtonRow
	deciding bool
	finished bool
	errMsg   string
}

var _ screen.Screen = (*TrainingScreen)(nil)
var _ screen.KeyHintProvider = (*TrainingScreen)(nil)
var _ screen.EscapeHandler = (*TrainingScreen)(nil)

// New creates a TrainingScreen for a started engine.
func New(e Engine) *TrainingScreen {
	s := &TrainingScreen{engine: e, status: e.Status()}
	s.buttons = components.NewButtonRow(
		components.NewButton("Resume", func() tea.Cmd { return s.decide(session.DecisionResume) }),
		components.NewButton("Stop", func() tea.Cmd { return s.decide(session.DecisionStop) }),
	)
	return s
}

func (s *TrainingScreen) Init() tea.Cmd {
	done := s.engine.Done()
	return tea.Batch(poll(), func() tea.Msg {
		<-done
		return doneMsg{}
	})
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (s *TrainingScreen) Title() string {
	return "Current Training"
}

// HandlesEscape keeps Esc from leaving a live session.
func (s *TrainingScreen) HandlesEscape() bool {
	return !s.finished
}

func (s *TrainingScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.finished:
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirm:
		return []layout.KeyHint{
			{Key: "←→", Description: "Choose"},
			{Key: "Enter", Description: "Confirm"},
			{Key: "Esc", Description: "Resume"},
		}
	}
	return []layout.KeyHint{
		{Key: "S", Description: "Stop"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *TrainingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case pollMsg:
		if s.finished {
			return s, nil
		}
		s.status = s.engine.Status()
		return s, poll()

	case doneMsg:
		s.finished = true
		s.confirm = false
		s.status = s.engine.Status()
		return s, nil

	case decidedMsg:
		s.deciding = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		if msg.Decision == session.DecisionResume {
			s.confirm = false
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *TrainingScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.finished {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.deciding {
		return s, nil
	}
	if s.confirm {
		if msg.String() == "esc" {
			return s, s.decide(session.DecisionResume)
		}
		var cmd tea.Cmd
		s.buttons, cmd = s.buttons.Update(msg)
		return s, cmd
	}

	switch msg.String() {
	case "s", "esc", "space", " ":
		progress, err := s.engine.Pause()
		if err != nil {
			s.errMsg = err.Error()
			return s, nil
		}
		s.status.Progress = progress
		s.status.Phase = session.PhasePaused.String()
		s.errMsg = ""
		s.confirm = true
		s.buttons.Selected = 0
	}
	return s, nil
}

func (s *TrainingScreen) decide(d session.Decision) tea.Cmd {
	if s.deciding {
		return nil
	}
	s.deciding = true
	e := s.engine
	return func() tea.Msg {
		return decidedMsg{Decision: d, Err: e.Decide(d)}
	}
}

func (s *TrainingScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	sess := s.status.Session

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render(sess.Name))

	if s.finished {
		sections = append(sections, s.renderResult(cw))
		sections = append(sections, components.Centered(theme.Hint.Render("press any key to go back"), cw))
		return components.Frame(strings.Join(sections, "\n\n"), width, height)
	}

	bar := components.NewProgressBar("", s.status.Progress, session.Steps, cw)
	remaining := session.Remaining(sess.DurationSeconds, s.status.Progress).Round(time.Second)
	sections = append(sections,
		bar.View(),
		components.Centered(fmt.Sprintf("%s left · %.1f kcal so far",
			remaining, session.Scale(sess.CaloriesAtFull, s.status.Progress)), cw),
	)

	if s.confirm {
		prompt := fmt.Sprintf("Are you sure? You already got %d%%", s.status.Progress)
		sections = append(sections, components.Card(prompt+"\n\n"+s.buttons.View(), cw))
	} else {
		sections = append(sections, components.Centered(theme.Hint.Render("Keep going!"), cw))
	}

	if s.errMsg != "" {
		sections = append(sections, theme.ErrorText.Width(cw).Align(lipgloss.Center).Render(s.errMsg))
	}
	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func (s *TrainingScreen) renderResult(cw int) string {
	rec, saved, err := s.engine.Result()
	switch {
	case err != nil:
		return theme.ErrorText.Width(cw).Align(lipgloss.Center).Render(session.SaveFailedMessage)
	case !saved:
		return components.Centered(theme.Hint.Render("Session ended"), cw)
	}

	style := theme.Completed
	headline := "Well done!"
	if rec.State == appstate.RecordCancelled {
		style = theme.Cancelled
		headline = "Stopped early"
	}
	body := style.Render(headline) + "\n\n" +
		fmt.Sprintf("%.0fs · %.1f kcal", rec.Duration, rec.Calories)
	return components.Card(body, cw)
}
