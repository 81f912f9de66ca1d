package render

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"morningbrief/types"
)

//go:embed templates/briefing.html
var templateFS embed.FS

var briefingTemplate = template.Must(template.New("briefing.html").Funcs(template.FuncMap{
	"icon":          WeatherIcon,
	"degrees":       Degrees,
	"capitalize":    Capitalize,
	"eventTime":     EventTime,
	"slotTime":      SlotTime,
	"summaryStatus": SummaryStatus,
}).ParseFS(templateFS, "templates/briefing.html"))

type htmlView struct {
	Title             string
	Date              string
	RunID             string
	Weather           *types.Weather
	Events            []types.CalendarEvent
	CalendarAvailable bool
	Articles          []types.SummarizedArticle
	Diag              types.Diagnostics
}

// HTML renders the briefing as a standalone HTML document
func HTML(b *types.Briefing) ([]byte, error) {
	view := htmlView{
		Title:             Subject(b, ""),
		Date:              b.GeneratedAt.Format("Monday, January 2, 2006"),
		RunID:             b.RunID,
		Weather:           b.Weather,
		Events:            b.Events,
		CalendarAvailable: b.Diagnostics.CalendarAvailable,
		Articles:          b.Articles,
		Diag:              b.Diagnostics,
	}

	var buf bytes.Buffer
	if err := briefingTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Subject builds the email subject line
func Subject(b *types.Briefing, base string) string {
	if base == "" {
		base = "Your Morning Briefing"
	}
	return base + " - " + b.GeneratedAt.Format(time.DateOnly)
}
