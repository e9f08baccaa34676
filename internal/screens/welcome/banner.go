package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/fitrack/internal/ui/theme"
)

const bannerArt = `
 ███████╗██╗████████╗██████╗  █████╗  ██████╗██╗  ██╗
 ██╔════╝██║╚══██╔══╝██╔══██╗██╔══██╗██╔════╝██║ ██╔╝
 █████╗  ██║   ██║   ██████╔╝███████║██║     █████╔╝
 ██╔══╝  ██║   ██║   ██╔══██╗██╔══██║██║     ██╔═██╗
 ██║     ██║   ██║   ██║  ██║██║  ██║╚██████╗██║  ██╗
 ╚═╝     ╚═╝   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝`

const bannerCompact = "F I T R A C K"

// RenderBanner returns the FITRACK banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 56 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 56 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
