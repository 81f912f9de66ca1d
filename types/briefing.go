package types

import "time"

// Weather is the current-conditions record supplied by the weather collaborator
type Weather struct {
	City        string         `json:"city"`
	Temperature float64        `json:"temperature"`
	FeelsLike   float64        `json:"feels_like"`
	TempMin     float64        `json:"temp_min"`
	TempMax     float64        `json:"temp_max"`
	Humidity    int            `json:"humidity"`
	WindSpeed   float64        `json:"wind_speed"`
	Condition   string         `json:"condition"`
	Description string         `json:"description"`
	Units       string         `json:"units"`
	Forecast    []ForecastSlot `json:"forecast,omitempty"`
}

// ForecastSlot is one 3-hour forecast entry
type ForecastSlot struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	RainChance  int       `json:"rain_chance"`
	Condition   string    `json:"condition"`
	Icon        string    `json:"icon,omitempty"`
}

// CalendarEvent is one event from today's calendar
type CalendarEvent struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
	Location string    `json:"location,omitempty"`
}

// Briefing is the assembled output of one run
type Briefing struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Weather     *Weather            `json:"weather,omitempty"`
	Events      []CalendarEvent     `json:"events,omitempty"`
	Articles    []SummarizedArticle `json:"articles"`
	Diagnostics Diagnostics         `json:"diagnostics"`
}
