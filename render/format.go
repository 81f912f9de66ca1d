// Package render turns a Briefing into HTML for email and files, or into a
// styled terminal report.
package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"morningbrief/types"
)

// weatherIcons is checked in order; the first key contained in the condition wins
var weatherIcons = []struct{ key, icon string }{
	{"clear", "☀️"},
	{"rain", "🌧️"},
	{"drizzle", "🌧️"},
	{"clouds", "⛅"},
	{"cloud", "⛅"},
	{"partly", "🌤️"},
	{"thunderstorm", "⛈️"},
	{"snow", "❄️"},
	{"mist", "🌫️"},
	{"fog", "🌫️"},
	{"haze", "🌫️"},
}

const defaultIcon = "🌤️"

// WeatherIcon returns an emoji for a weather condition
func WeatherIcon(condition string) string {
	c := strings.ToLower(condition)
	for _, wi := range weatherIcons {
		if strings.Contains(c, wi.key) {
			return wi.icon
		}
	}
	return defaultIcon
}

// EventTime formats an event start for display
func EventTime(ev types.CalendarEvent) string {
	if ev.AllDay {
		return "All Day"
	}
	return ev.Start.Format("03:04 PM")
}

// SlotTime formats a forecast slot as "3PM"
func SlotTime(t time.Time) string {
	return t.Format("3PM")
}

// Degrees rounds a temperature for display
func Degrees(v float64) string {
	return fmt.Sprintf("%d°", int(math.Round(v)))
}

// Capitalize upper-cases the first letter
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// SummaryStatus describes why a summary is missing, or "" when it is present
func SummaryStatus(a types.SummarizedArticle) string {
	switch {
	case a.HasSummary():
		return ""
	case a.SummaryOutcome.Skipped():
		return "Summary skipped"
	default:
		return "Summary unavailable"
	}
}
