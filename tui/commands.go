package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// runBriefing runs the source in the background
func runBriefing(ctx context.Context, src Source) tea.Cmd {
	return func() tea.Msg {
		b, err := src.Run(ctx)
		return RunFinishedMsg{Briefing: b, Err: err}
	}
}

// tickCmd ticks every 250ms while a run is in progress
func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
