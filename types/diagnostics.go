package types

// SourceFailure records a feed that could not be fetched
type SourceFailure struct {
	Source string    `json:"source"`
	URL    string    `json:"url"`
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
}

// ItemFailure records a per-article failure
type ItemFailure struct {
	URL    string    `json:"url"`
	Title  string    `json:"title"`
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
}

// Diagnostics are per-run counters and failure annotations
type Diagnostics struct {
	SourcesConfigured  int             `json:"sources_configured"`
	SourcesFailed      int             `json:"sources_failed"`
	SourceFailures     []SourceFailure `json:"source_failures,omitempty"`
	ItemsFetched       int             `json:"items_fetched"`
	Extracted          int             `json:"extracted"`
	ExtractionFailures []ItemFailure   `json:"extraction_failures,omitempty"`
	DuplicatesDropped  int             `json:"duplicates_dropped"`
	Selected           int             `json:"selected"`
	Summarized         int             `json:"summarized"`
	SummaryFailures    []ItemFailure   `json:"summary_failures,omitempty"`
	SummarySkipped     int             `json:"summary_skipped"`
	Fatal              ErrorKind       `json:"fatal,omitempty"`
	DeadlineExceeded   bool            `json:"deadline_exceeded"`
	WeatherAvailable   bool            `json:"weather_available"`
	CalendarAvailable  bool            `json:"calendar_available"`
	Notes              []string        `json:"notes,omitempty"`
}

// CountKind returns the number of recorded failures of the given kind
func (d Diagnostics) CountKind(kind ErrorKind) int {
	n := 0
	for _, f := range d.SourceFailures {
		if f.Kind == kind {
			n++
		}
	}
	for _, f := range d.ExtractionFailures {
		if f.Kind == kind {
			n++
		}
	}
	for _, f := range d.SummaryFailures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Degraded reports whether anything went wrong during the run
func (d Diagnostics) Degraded() bool {
	return d.SourcesFailed > 0 || len(d.ExtractionFailures) > 0 || len(d.SummaryFailures) > 0 ||
		d.SummarySkipped > 0 || d.Fatal != "" || d.DeadlineExceeded
}
