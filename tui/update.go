package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m.layout(), nil
	case TickMsg:
		if m.State != StateRunning {
			return m, nil
		}
		m.frame++
		return m, tickCmd()
	case RunFinishedMsg:
		return m.handleRunFinished(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		if m.State != StateRunning {
			m.State = StateRunning
			m.Err = nil
			m.offset = 0
			return m, tea.Batch(runBriefing(m.ctx, m.source), tickCmd())
		}
	case "down", "j":
		m.offset = min(m.offset+1, m.maxOffset())
	case "up", "k":
		m.offset = max(m.offset-1, 0)
	case "pgdown", " ":
		m.offset = min(m.offset+m.pageHeight(), m.maxOffset())
	case "pgup":
		m.offset = max(m.offset-m.pageHeight(), 0)
	case "home", "g":
		m.offset = 0
	case "end", "G":
		m.offset = m.maxOffset()
	}
	return m, nil
}

func (m Model) handleRunFinished(msg RunFinishedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil && msg.Briefing == nil {
		m.State = StateError
		m.Err = msg.Err
		return m, nil
	}
	m.State = StateComplete
	m.Err = msg.Err
	m.Briefing = msg.Briefing
	return m.layout(), nil
}
