package tui

import (
	"time"

	"morningbrief/types"
)

// RunFinishedMsg is sent when the briefing run returns
type RunFinishedMsg struct {
	Briefing *types.Briefing
	Err      error
}

// TickMsg drives the progress animation
type TickMsg struct {
	Time time.Time
}
