package tui

import (
	"fmt"
	"strings"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	switch m.State {
	case StateRunning:
		b.WriteString(headerStyle.Render("☀️  Morning Briefing"))
		b.WriteString("\n")
		b.WriteString(progressStyle.Render(frames[m.frame%len(frames)] + " Building your briefing..."))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("Press 'q' or Ctrl+C to quit"))
	case StateError:
		b.WriteString(headerStyle.Render("☀️  Morning Briefing"))
		b.WriteString("\n")
		b.WriteString(failureStyle.Render(fmt.Sprintf("❌ Error: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("Press 'r' to retry | Press 'q' to quit"))
	case StateComplete:
		end := min(m.offset+m.pageHeight(), len(m.lines))
		b.WriteString(strings.Join(m.lines[m.offset:end], "\n"))
		b.WriteString("\n")
		footer := "↑/↓ scroll | r re-run | q quit"
		if m.Err != nil {
			b.WriteString(failureStyle.Render(m.Err.Error()))
			b.WriteString("  ")
		}
		b.WriteString(footerStyle.Render(footer))
	}
	return b.String()
}
