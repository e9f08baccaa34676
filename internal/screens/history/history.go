package history

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/router"
	"github.com/abhisek/fitrack/internal/screen"
	"github.com/abhisek/fitrack/internal/ui/components"
	"github.com/abhisek/fitrack/internal/ui/layout"
	"github.com/abhisek/fitrack/internal/ui/theme"
)

// HistoryScreen lists finished sessions, newest first, with a filter.
type HistoryScreen struct {
	store    *appstate.Store
	filter   components.TextInput
	records  []appstate.FinishedRecord
	selected int
	offset   int
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.EscapeHandler = (*HistoryScreen)(nil)

// New creates a new HistoryScreen reading from store.
func New(store *appstate.Store) *HistoryScreen {
	s := &HistoryScreen{
		store:  store,
		filter: components.NewTextInput("", "type / to filter", false, 64),
	}
	s.refresh(store.State())
	return s
}

func (s *HistoryScreen) refresh(st appstate.State) {
	s.records = appstate.FilterHistory(s.filter.Value())(st)
	if s.selected >= len(s.records) {
		s.selected = max(len(s.records)-1, 0)
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return nil
}

func (s *HistoryScreen) Title() string {
	return "Past Trainings"
}

// HandlesEscape lets Esc leave the filter before leaving the screen.
func (s *HistoryScreen) HandlesEscape() bool {
	return true
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.filter.Focused() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Clear filter"},
		}
	}
	return []layout.KeyHint{
		{Key: "/", Description: "Filter"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StateMsg:
		s.refresh(msg.Snapshot.State)
		return s, nil

	case tea.KeyMsg:
		if s.filter.Focused() {
			return s.updateFilter(msg)
		}
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "/":
			return s, s.filter.Focus()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.records)-1 {
				s.selected++
			}
		}
		return s, nil
	}
	return s, nil
}

func (s *HistoryScreen) updateFilter(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.filter.SetValue("")
		s.filter.Blur()
		s.refresh(s.store.State())
		return s, nil
	case "enter":
		s.filter.Blur()
		return s, nil
	}
	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	s.selected = 0
	s.refresh(s.store.State())
	return s, cmd
}

func (s *HistoryScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.filter.View()))
	b.WriteString("\n\n")

	if len(s.records) == 0 {
		msg := "No trainings yet. Start one from the home screen!"
		if s.filter.Value() != "" {
			msg = "No trainings match the filter."
		}
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render(msg))
		return b.String()
	}

	header := fmt.Sprintf("  %-12s  %-20s  %8s  %8s  %-9s", "DATE", "NAME", "DURATION", "KCAL", "STATE")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true).Render(header)))
	b.WriteString("\n")

	rows := max(height-6, 1)
	s.offset = scrollOffset(s.offset, s.selected, rows)
	end := min(s.offset+rows, len(s.records))

	for i := s.offset; i < end; i++ {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderRow(i)))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *HistoryScreen) renderRow(i int) string {
	r := s.records[i]
	prefix := "  "
	if i == s.selected {
		prefix = "> "
	}

	stateStyle := theme.Completed
	if r.State == appstate.RecordCancelled {
		stateStyle = theme.Cancelled
	}

	line := fmt.Sprintf("%s%-12s  %-20s  %7.0fs  %8.1f  ",
		prefix, r.Date.Format("Jan 02, 2006"), truncate(r.Name, 20), r.Duration, r.Calories)

	style := lipgloss.NewStyle().Foreground(theme.Text)
	if i == s.selected {
		style = style.Foreground(theme.Primary).Bold(true)
	}
	return style.Render(line) + stateStyle.Render(fmt.Sprintf("%-9s", r.State))
}

// scrollOffset keeps selected inside a window of rows lines.
func scrollOffset(offset, selected, rows int) int {
	if selected < offset {
		return selected
	}
	if selected >= offset+rows {
		return selected - rows + 1
	}
	return offset
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
