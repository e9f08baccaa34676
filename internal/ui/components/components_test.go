package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

type pressedMsg string

func pressCmd(label string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return pressedMsg(label) }
	}
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	}
	return tea.KeyPressMsg{Code: rune(s[0]), Text: s}
}

func TestMenuSkipsDisabledItems(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Off", Disabled: true},
		{Label: "A", Action: pressCmd("a")},
		{Label: "Off too", Disabled: true},
		{Label: "B", Action: pressCmd("b")},
	})
	if m.Selected != 1 {
		t.Fatalf("expected first enabled item selected, got %d", m.Selected)
	}

	m, _ = m.Update(key("down"))
	if m.Selected != 3 {
		t.Errorf("expected down to skip disabled item, got %d", m.Selected)
	}
	m, _ = m.Update(key("up"))
	if m.Selected != 1 {
		t.Errorf("expected up to skip disabled item, got %d", m.Selected)
	}

	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("expected enter to run the action")
	}
	if got := cmd(); got != pressedMsg("a") {
		t.Errorf("expected pressed a, got %v", got)
	}
}

func TestMenuSetItemsKeepsValidSelection(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "A"}, {Label: "B"}, {Label: "C"}})
	m.Selected = 2

	m = m.SetItems([]MenuItem{{Label: "A"}, {Label: "B"}, {Label: "C"}, {Label: "D"}})
	if m.Selected != 2 {
		t.Errorf("expected selection kept, got %d", m.Selected)
	}

	m = m.SetItems([]MenuItem{{Label: "A"}})
	if m.Selected != 0 {
		t.Errorf("expected selection reset, got %d", m.Selected)
	}
}

func TestMenuViewListsLabels(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "New Training"}, {Label: "Past Trainings"}})
	out := m.View(40)
	if !strings.Contains(out, "New Training") || !strings.Contains(out, "Past Trainings") {
		t.Errorf("menu view missing labels:\n%s", out)
	}
}

func TestButtonRowNavigatesAndPresses(t *testing.T) {
	r := NewButtonRow(NewButton("Resume", pressCmd("resume")), NewButton("Stop", pressCmd("stop")))

	r, _ = r.Update(key("left"))
	if r.Selected != 0 {
		t.Errorf("left at the first button should stay put, got %d", r.Selected)
	}
	r, _ = r.Update(key("right"))
	if r.Selected != 1 {
		t.Errorf("expected second button, got %d", r.Selected)
	}
	r, _ = r.Update(key("right"))
	if r.Selected != 1 {
		t.Errorf("right at the last button should stay put, got %d", r.Selected)
	}

	_, cmd := r.Update(key("enter"))
	if cmd == nil {
		t.Fatal("expected enter to press the button")
	}
	if got := cmd(); got != pressedMsg("stop") {
		t.Errorf("expected stop, got %v", got)
	}
}

func TestProgressBarFraction(t *testing.T) {
	tests := []struct {
		value, total int
		want         float64
	}{
		{0, 100, 0},
		{40, 100, 0.4},
		{100, 100, 1},
		{150, 100, 1},
		{-3, 100, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		p := NewProgressBar("", tt.value, tt.total, 40)
		if got := p.Fraction(); got != tt.want {
			t.Errorf("Fraction(%d/%d) = %v, want %v", tt.value, tt.total, got, tt.want)
		}
	}
}

func TestProgressBarShowsPercent(t *testing.T) {
	out := NewProgressBar("Plank", 40, 100, 50).View()
	if !strings.Contains(out, "40%") || !strings.Contains(out, "Plank") {
		t.Errorf("unexpected progress bar: %q", out)
	}
}
