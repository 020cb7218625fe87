// Package metrics collects in-process statistics about suggestion and
// simulation runs for the /metrics endpoint.
package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ramonehamilton/doomsday-companion/internal/engine"
)

// EngineMetrics tracks suggestion and simulation runs. It implements
// engine.Recorder.
type EngineMetrics struct {
	// SuggestLatency is in milliseconds.
	SuggestLatency *Histogram
	// CandidatesPerRun counts enumerated piles per suggestion run.
	CandidatesPerRun *Histogram

	SuggestRuns    atomic.Uint64
	PilesEvaluated atomic.Uint64
	PilesRejected  atomic.Uint64
	SimulateRuns   atomic.Uint64
	APIRequests    atomic.Uint64
	APIErrors      atomic.Uint64

	mu        sync.Mutex
	outcomes  map[string]uint64
	startTime time.Time
}

var _ engine.Recorder = (*EngineMetrics)(nil)

// NewEngineMetrics creates a new metrics collector.
func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		SuggestLatency:   NewHistogram(10000),
		CandidatesPerRun: NewHistogram(10000),
		outcomes:         make(map[string]uint64),
		startTime:        time.Now(),
	}
}

// RecordSuggestRun records one completed suggestion run.
func (m *EngineMetrics) RecordSuggestRun(stats engine.RunStats) {
	m.SuggestRuns.Add(1)
	m.SuggestLatency.Record(stats.Duration)
	m.CandidatesPerRun.Observe(float64(stats.Candidates))
	m.PilesEvaluated.Add(uint64(stats.Survivors))
	m.PilesRejected.Add(uint64(stats.Candidates - stats.Survivors))
}

// RecordSimulation records the outcome of one simulation request.
func (m *EngineMetrics) RecordSimulation(outcome engine.Outcome) {
	m.SimulateRuns.Add(1)

	key := outcome.String()
	if outcome.Kind == engine.OutcomeInsufficientMana {
		key = "insufficient_mana"
	}
	m.mu.Lock()
	m.outcomes[key]++
	m.mu.Unlock()
}

// RecordAPIRequest counts one API request and whether it failed.
func (m *EngineMetrics) RecordAPIRequest(failed bool) {
	m.APIRequests.Add(1)
	if failed {
		m.APIErrors.Add(1)
	}
}

// EngineStats is a point-in-time view of EngineMetrics.
type EngineStats struct {
	SuggestLatency   Summary           `json:"suggest_latency_ms"`
	CandidatesPerRun Summary           `json:"candidates_per_run"`
	SuggestRuns      uint64            `json:"suggest_runs"`
	PilesEvaluated   uint64            `json:"piles_evaluated"`
	PilesRejected    uint64            `json:"piles_rejected"`
	SimulateRuns     uint64            `json:"simulate_runs"`
	Outcomes         map[string]uint64 `json:"outcomes"`
	APIRequests      uint64            `json:"api_requests"`
	APIErrors        uint64            `json:"api_errors"`
	APISuccessRate   float64           `json:"api_success_rate"` // percentage
	Uptime           string            `json:"uptime"`
}

// GetStats returns a snapshot of the current statistics.
func (m *EngineMetrics) GetStats() *EngineStats {
	m.mu.Lock()
	outcomes := maps.Clone(m.outcomes)
	started := m.startTime
	m.mu.Unlock()

	requests := m.APIRequests.Load()
	apiErrors := m.APIErrors.Load()
	successRate := 0.0
	if requests > 0 {
		successRate = float64(requests-apiErrors) / float64(requests) * 100
	}

	return &EngineStats{
		SuggestLatency:   m.SuggestLatency.Snapshot(),
		CandidatesPerRun: m.CandidatesPerRun.Snapshot(),
		SuggestRuns:      m.SuggestRuns.Load(),
		PilesEvaluated:   m.PilesEvaluated.Load(),
		PilesRejected:    m.PilesRejected.Load(),
		SimulateRuns:     m.SimulateRuns.Load(),
		Outcomes:         outcomes,
		APIRequests:      requests,
		APIErrors:        apiErrors,
		APISuccessRate:   successRate,
		Uptime:           time.Since(started).Round(time.Second).String(),
	}
}

// Reset clears all metrics.
func (m *EngineMetrics) Reset() {
	m.SuggestLatency.Reset()
	m.CandidatesPerRun.Reset()
	m.SuggestRuns.Store(0)
	m.PilesEvaluated.Store(0)
	m.PilesRejected.Store(0)
	m.SimulateRuns.Store(0)
	m.APIRequests.Store(0)
	m.APIErrors.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.outcomes)
	m.startTime = time.Now()
}
