package tui

import (
	"github.com/charmbracelet/lipgloss"

	"morningbrief/render"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(render.ColorSunrise).
			MarginBottom(1)

	progressStyle = lipgloss.NewStyle().Foreground(render.ColorCalm)
	failureStyle  = lipgloss.NewStyle().Foreground(render.ColorAlert)
	hintStyle     = lipgloss.NewStyle().Foreground(render.ColorMuted)

	footerStyle = lipgloss.NewStyle().
			Foreground(render.ColorPaper).
			Background(render.ColorSky).
			Padding(0, 1)
)
