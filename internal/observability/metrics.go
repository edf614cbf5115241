package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts handled messages per command kind and sync outcomes.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	commands map[string]*CommandMetrics
	outcomes map[string]int64
}

// CommandMetrics holds counters for one command kind.
type CommandMetrics struct {
	count         atomic.Int64
	errorCount    atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

func NewMetrics() *Metrics {
	return &Metrics{
		commands: make(map[string]*CommandMetrics),
		outcomes: make(map[string]int64),
	}
}

// RecordRequest records one handled message.
func (m *Metrics) RecordRequest(kind string, duration time.Duration, failed bool) {
	m.requestTotal.Add(1)
	cm := m.command(kind)
	cm.count.Add(1)
	cm.totalDuration.Add(duration.Milliseconds())
	if failed {
		m.requestFailed.Add(1)
		cm.errorCount.Add(1)
	}
}

// RecordOutcome counts one add or delete outcome.
func (m *Metrics) RecordOutcome(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

func (m *Metrics) command(kind string) *CommandMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	cm, ok := m.commands[kind]
	if !ok {
		cm = &CommandMetrics{}
		m.commands[kind] = cm
	}
	return cm
}

func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.mu.Lock()
	m.commands = make(map[string]*CommandMetrics)
	m.outcomes = make(map[string]int64)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy suitable for JSON encoding.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	commands := make(map[string]CommandSnapshot, len(m.commands))
	for kind, cm := range m.commands {
		s := CommandSnapshot{
			Count:      cm.count.Load(),
			ErrorCount: cm.errorCount.Load(),
		}
		if s.Count > 0 {
			s.AverageDurationMs = cm.totalDuration.Load() / s.Count
		}
		commands[kind] = s
	}
	outcomes := make(map[string]int64, len(m.outcomes))
	for k, v := range m.outcomes {
		outcomes[k] = v
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Commands:      commands,
		Outcomes:      outcomes,
	}
}

type MetricsSnapshot struct {
	RequestTotal  int64                      `json:"request_total"`
	RequestFailed int64                      `json:"request_failed"`
	Commands      map[string]CommandSnapshot `json:"commands"`
	Outcomes      map[string]int64           `json:"outcomes"`
}

type CommandSnapshot struct {
	Count             int64 `json:"count"`
	ErrorCount        int64 `json:"error_count"`
	AverageDurationMs int64 `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
