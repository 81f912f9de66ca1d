// Package briefing combines the news result with the weather and calendar
// sections into one Briefing.
package briefing

import (
	"fmt"
	"log/slog"
	"time"

	"morningbrief/types"
)

// Input holds everything a briefing is built from. Weather and Events are
// optional; the matching error, if any, explains why a section is missing.
type Input struct {
	RunID       string
	GeneratedAt time.Time
	Articles    []types.SummarizedArticle
	Diagnostics types.Diagnostics
	Weather     *types.Weather
	WeatherErr  error
	Events      []types.CalendarEvent
	CalendarErr error
}

// Assemble builds the Briefing. It performs no I/O besides logging and never fails.
func Assemble(in Input, logger *slog.Logger) *types.Briefing {
	if logger == nil {
		logger = slog.Default()
	}

	b := &types.Briefing{
		RunID:       in.RunID,
		GeneratedAt: in.GeneratedAt,
		Articles:    append([]types.SummarizedArticle{}, in.Articles...),
		Diagnostics: in.Diagnostics,
	}
	b.Diagnostics.SourceFailures = append([]types.SourceFailure(nil), in.Diagnostics.SourceFailures...)
	b.Diagnostics.ExtractionFailures = append([]types.ItemFailure(nil), in.Diagnostics.ExtractionFailures...)
	b.Diagnostics.SummaryFailures = append([]types.ItemFailure(nil), in.Diagnostics.SummaryFailures...)
	b.Diagnostics.Notes = append([]string(nil), in.Diagnostics.Notes...)

	switch {
	case in.Weather != nil:
		w := *in.Weather
		w.Forecast = append([]types.ForecastSlot(nil), in.Weather.Forecast...)
		b.Weather = &w
		b.Diagnostics.WeatherAvailable = true
	case in.WeatherErr != nil:
		logger.Warn("weather section omitted", "error", in.WeatherErr)
		b.Diagnostics.Notes = append(b.Diagnostics.Notes, fmt.Sprintf("weather unavailable: %v", in.WeatherErr))
	default:
		logger.Info("weather section omitted", "reason", "not configured")
	}

	switch {
	case in.CalendarErr != nil:
		logger.Warn("calendar section omitted", "error", in.CalendarErr)
		b.Diagnostics.Notes = append(b.Diagnostics.Notes, fmt.Sprintf("calendar unavailable: %v", in.CalendarErr))
	case in.Events != nil:
		b.Events = append([]types.CalendarEvent{}, in.Events...)
		b.Diagnostics.CalendarAvailable = true
	default:
		logger.Info("calendar section omitted", "reason", "not configured")
	}

	// an empty selection is fatal only when the briefing has nothing else to show
	if b.Diagnostics.Fatal == types.NoArticlesSelected && (b.Diagnostics.WeatherAvailable || len(b.Events) > 0) {
		logger.Warn("news section empty", "reason", string(types.NoArticlesSelected))
		b.Diagnostics.Notes = append(b.Diagnostics.Notes, fmt.Sprintf("news unavailable: %s", types.NoArticlesSelected))
		b.Diagnostics.Fatal = ""
	}
	if b.Diagnostics.Fatal != "" {
		logger.Warn("news section empty", "fatal", string(b.Diagnostics.Fatal))
	}

	logger.Info("briefing assembled",
		"run_id", b.RunID,
		"articles", len(b.Articles),
		"weather", b.Diagnostics.WeatherAvailable,
		"events", len(b.Events),
		"degraded", b.Diagnostics.Degraded())
	return b
}
