// Package layout draws the chrome around the active screen: header bar,
// optional toast line, key-hint footer and the too-small fallback.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/fitrack/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 20
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// RenderHeader renders the top bar: app name on the left, title centred,
// status on the right. status is clipped when the bar is too narrow.
func RenderHeader(title, status string, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  Fitrack")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)

	inner := max(width-4, 0) // border + padding
	room := inner - lipgloss.Width(left) - lipgloss.Width(center) - 2
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(ansi.Truncate(status, max(room, 0), "…"))

	leftGap := max((inner-lipgloss.Width(center))/2-lipgloss.Width(left), 1)
	rightGap := max(inner-lipgloss.Width(left)-leftGap-lipgloss.Width(center)-lipgloss.Width(right), 1)

	return bar(width).Render(left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyStyle.Render(h.Key)+" "+descStyle.Render(h.Description))
	}
	return bar(width).Render("  " + strings.Join(parts, "   "))
}

// RenderToast renders a one-line notification, with its action label in
// brackets when present.
func RenderToast(message, action string, width int) string {
	text := message
	if action != "" {
		text += "  [" + action + "]"
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Toast.Render(text))
}

// Frame holds the rendered chrome. Toast may be empty.
type Frame struct {
	Header string
	Toast  string
	Footer string
}

func (f Frame) chromeHeight() int {
	h := lipgloss.Height(f.Header) + lipgloss.Height(f.Footer)
	if f.Toast != "" {
		h += lipgloss.Height(f.Toast)
	}
	return h
}

// ContentHeight returns the rows left for screen content in a terminal of
// the given height.
func (f Frame) ContentHeight(height int) int {
	return max(height-f.chromeHeight(), 0)
}

// Render stacks header, content padded to fill the space, toast and footer.
func (f Frame) Render(content string, width, height int) string {
	body := lipgloss.NewStyle().
		Width(width).
		Height(f.ContentHeight(height)).
		MaxHeight(f.ContentHeight(height)).
		Render(content)

	rows := []string{f.Header, body}
	if f.Toast != "" {
		rows = append(rows, f.Toast)
	}
	rows = append(rows, f.Footer)
	return strings.Join(rows, "\n")
}
