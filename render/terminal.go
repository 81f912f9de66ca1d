package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"morningbrief/types"
)

// Morning palette shared by the terminal report and the viewer
var (
	ColorSunrise = lipgloss.Color("#F08A24")
	ColorSky     = lipgloss.Color("#3A86C8")
	ColorAlert   = lipgloss.Color("#D64545")
	ColorMuted   = lipgloss.Color("#7A7A7A")
	ColorPaper   = lipgloss.Color("#FFF8EC")
	ColorCalm    = lipgloss.Color("#3FA672")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSunrise)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPaper).
			Background(ColorSky).
			Padding(0, 1)

	okStyle  = lipgloss.NewStyle().Foreground(ColorCalm)
	errStyle = lipgloss.NewStyle().Foreground(ColorAlert)

	infoStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSunrise).
			Padding(0, 1)
)

// Terminal renders the briefing for a terminal of the given width
func Terminal(b *types.Briefing, width int) string {
	if width <= 0 {
		width = 80
	}
	body := lipgloss.NewStyle().Width(width - 4)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("☀️  Good Morning! " + b.GeneratedAt.Format("Monday, January 2, 2006")))
	sb.WriteString("\n\n")

	sb.WriteString(sectionStyle.Render("Weather"))
	sb.WriteString("\n")
	if w := b.Weather; w != nil {
		sb.WriteString(fmt.Sprintf("%s %s  %s  (H %s / L %s)\n",
			WeatherIcon(w.Condition), Degrees(w.Temperature), Capitalize(w.Description),
			Degrees(w.TempMax), Degrees(w.TempMin)))
		var slots []string
		for _, s := range w.Forecast {
			slots = append(slots, fmt.Sprintf("%s %s %s", SlotTime(s.Time), WeatherIcon(s.Condition), Degrees(s.Temperature)))
		}
		if len(slots) > 0 {
			sb.WriteString(infoStyle.Render(strings.Join(slots, "  |  ")))
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(infoStyle.Render("Weather data is unavailable today."))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(sectionStyle.Render("Today's Schedule"))
	sb.WriteString("\n")
	switch {
	case len(b.Events) > 0:
		for _, ev := range b.Events {
			sb.WriteString(okStyle.Render(fmt.Sprintf("%-9s", EventTime(ev))))
			sb.WriteString(" " + ev.Title + "\n")
		}
	case b.Diagnostics.CalendarAvailable:
		sb.WriteString(infoStyle.Render("No events scheduled today."))
		sb.WriteString("\n")
	default:
		sb.WriteString(infoStyle.Render("Calendar is unavailable today."))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(sectionStyle.Render("News"))
	sb.WriteString("\n")
	if len(b.Articles) == 0 {
		sb.WriteString(infoStyle.Render("No news articles are available today."))
		sb.WriteString("\n")
	}
	for i, a := range b.Articles {
		var ab strings.Builder
		ab.WriteString(titleStyle.Render(fmt.Sprintf("%d. %s", i+1, a.Title)))
		ab.WriteString("\n")
		ab.WriteString(infoStyle.Render(a.Source + "  " + a.URL))
		ab.WriteString("\n")
		if status := SummaryStatus(a); status != "" {
			ab.WriteString(errStyle.Render(status))
		} else {
			ab.WriteString(body.Render(a.Summary))
		}
		sb.WriteString(boxStyle.Width(width).Render(ab.String()))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render(DiagnosticsLine(b.Diagnostics)))
	if b.Diagnostics.Degraded() {
		sb.WriteString("\n")
		msg := "Briefing is degraded"
		if len(b.Diagnostics.Notes) > 0 {
			msg += ": " + strings.Join(b.Diagnostics.Notes, "; ")
		}
		sb.WriteString(errStyle.Render(msg))
	}
	sb.WriteString("\n")
	return sb.String()
}

// DiagnosticsLine summarizes run counters on a single line
func DiagnosticsLine(d types.Diagnostics) string {
	return fmt.Sprintf("sources %d/%d ok | fetched %d | extracted %d | duplicates %d | summarized %d/%d",
		d.SourcesConfigured-d.SourcesFailed, d.SourcesConfigured,
		d.ItemsFetched, d.Extracted, d.DuplicatesDropped, d.Summarized, d.Selected)
}
