package api

import (
	"fmt"
	"sync"
	"time"

	"morningbrief/types"
)

// State is the service run state
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// LogEntry is a single status log line
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// StatusResponse is the JSON body of GET /api/briefing/status
type StatusResponse struct {
	State       State              `json:"state"`
	RunID       string             `json:"run_id,omitempty"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	Logs        []LogEntry         `json:"logs"`
	Diagnostics *types.Diagnostics `json:"diagnostics,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Manager holds the service state with thread-safe access
type Manager struct {
	mu sync.RWMutex

	state     State
	runID     string
	startedAt time.Time
	latest    *types.Briefing
	lastErr   error

	// Logs (ring buffer)
	logs    []LogEntry
	maxLogs int
}

// NewManager creates an idle state manager
func NewManager() *Manager {
	return &Manager{
		state:   StateIdle,
		logs:    make([]LogEntry, 0),
		maxLogs: 50,
	}
}

// TryStart moves to running unless a run is already in progress
func (m *Manager) TryStart(runID, requestedBy string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateRunning {
		return false
	}
	m.state = StateRunning
	m.runID = runID
	m.startedAt = time.Now()
	m.lastErr = nil
	m.addLogLocked(fmt.Sprintf("Run %s started (requested by %s)", runID, requestedBy))
	return true
}

// Finish records the outcome of the current run. b may be nil when the run
// produced nothing.
func (m *Manager) Finish(b *types.Briefing, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b != nil {
		m.latest = b
	}
	if err != nil {
		m.state = StateError
		m.lastErr = err
		m.addLogLocked(fmt.Sprintf("Error: %v", err))
		return
	}
	m.state = StateComplete
	if b != nil {
		m.addLogLocked(fmt.Sprintf("Run %s complete: %d articles", b.RunID, len(b.Articles)))
	}
}

// AddLog adds a log entry (thread-safe)
func (m *Manager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLogLocked(message)
}

func (m *Manager) addLogLocked(message string) {
	m.logs = append(m.logs, LogEntry{Timestamp: time.Now(), Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

// State returns the current state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Latest returns the most recent briefing, or nil
func (m *Manager) Latest() *types.Briefing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Status returns a snapshot of the current state
func (m *Manager) Status() StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := StatusResponse{
		State: m.state,
		RunID: m.runID,
		Logs:  append([]LogEntry{}, m.logs...),
	}
	if !m.startedAt.IsZero() {
		started := m.startedAt
		resp.StartedAt = &started
	}
	if m.latest != nil {
		d := m.latest.Diagnostics
		resp.Diagnostics = &d
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}
