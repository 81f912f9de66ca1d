// Package tui is a terminal viewer that runs a briefing and pages through the result.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"morningbrief/render"
	"morningbrief/types"
)

// Source produces a briefing, locally or from a remote service
type Source interface {
	Run(ctx context.Context) (*types.Briefing, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (*types.Briefing, error)

func (f SourceFunc) Run(ctx context.Context) (*types.Briefing, error) { return f(ctx) }

// State represents the viewer state machine
type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// Model is the viewer state
type Model struct {
	ctx    context.Context
	source Source

	State    State
	Briefing *types.Briefing
	Err      error

	frame  int
	width  int
	height int
	offset int
	lines  []string
}

// NewModel creates a viewer that runs src on start
func NewModel(ctx context.Context, src Source) Model {
	return Model{ctx: ctx, source: src, State: StateRunning, width: 80, height: 24}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(runBriefing(m.ctx, m.source), tickCmd())
}

// pageHeight is the number of briefing lines that fit above the footer
func (m Model) pageHeight() int {
	return max(m.height-2, 1)
}

func (m Model) maxOffset() int {
	return max(len(m.lines)-m.pageHeight(), 0)
}

func (m Model) layout() Model {
	if m.Briefing != nil {
		m.lines = strings.Split(render.Terminal(m.Briefing, m.width), "\n")
	}
	m.offset = min(m.offset, m.maxOffset())
	return m
}
