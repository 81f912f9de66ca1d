package types

import "errors"

// ErrorKind classifies pipeline failures for diagnostics
type ErrorKind string

const (
	// Per-item kinds. Recorded in diagnostics, the run continues.
	SourceUnavailable   ErrorKind = "SourceUnavailable"
	ExtractionFailed    ErrorKind = "ExtractionFailed"
	SummarizationFailed ErrorKind = "SummarizationFailed"

	// Pipeline-fatal kinds. The news section is empty but the briefing is still assembled.
	AllSourcesFailed   ErrorKind = "AllSourcesFailed"
	NoArticlesSelected ErrorKind = "NoArticlesSelected"
)

var (
	ErrAllSourcesFailed   = errors.New("all feed sources failed")
	ErrNoArticlesSelected = errors.New("no articles survived extraction and deduplication")
	ErrNoFeeds            = errors.New("no feed sources configured")
	ErrRunInProgress      = errors.New("a briefing run is already in progress")
)

// Err returns the sentinel error for a fatal kind, or nil
func (k ErrorKind) Err() error {
	switch k {
	case AllSourcesFailed:
		return ErrAllSourcesFailed
	case NoArticlesSelected:
		return ErrNoArticlesSelected
	}
	return nil
}
