// Package events publishes briefing run events to Kafka and consumes run requests.
package events

import (
	"time"

	"morningbrief/types"
)

// RunStatus is the lifecycle stage reported in a RunEvent
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunEvent is published on the runs topic, keyed by run id
type RunEvent struct {
	RunID       string             `json:"run_id"`
	Status      RunStatus          `json:"status"`
	Diagnostics *types.Diagnostics `json:"diagnostics,omitempty"`
	Error       string             `json:"error,omitempty"`
	At          time.Time          `json:"at"`
}

// RunRequest asks a running service to produce a briefing now
type RunRequest struct {
	RequestedBy string `json:"requested_by"`
	DryRun      bool   `json:"dry_run"`
}
