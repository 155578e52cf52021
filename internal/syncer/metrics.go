package syncer

import (
	"sync"
	"time"
)

// maxLatencySamples bounds the retained latency window.
const maxLatencySamples = 100

// Metrics tracks sync activity. All methods are safe for concurrent use
// and reading never mutates state.
type Metrics struct {
	mu                  sync.Mutex
	totalUpdates        int64
	successfulSyncs     int64
	failedSyncs         int64
	latencySamples      []time.Duration
	consecutiveFailures int
	degraded            bool
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	TotalUpdates    int64
	SuccessfulSyncs int64
	FailedSyncs     int64
	SuccessRate     float64
	AverageLatency  time.Duration
	Degraded        bool
}

func (m *Metrics) recordUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalUpdates++
}

func (m *Metrics) recordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successfulSyncs++
	m.consecutiveFailures = 0
	m.degraded = false
	m.latencySamples = append(m.latencySamples, latency)
	if len(m.latencySamples) > maxLatencySamples {
		m.latencySamples = m.latencySamples[1:]
	}
}

func (m *Metrics) recordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedSyncs++
	m.consecutiveFailures++
	if m.consecutiveFailures >= degradedFailureThreshold {
		m.degraded = true
	}
}

// Snapshot returns the current counters with derived rates.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalUpdates:    m.totalUpdates,
		SuccessfulSyncs: m.successfulSyncs,
		FailedSyncs:     m.failedSyncs,
		Degraded:        m.degraded,
	}
	attempts := m.successfulSyncs + m.failedSyncs
	if attempts > 0 {
		snap.SuccessRate = float64(m.successfulSyncs) / float64(attempts)
	}
	if len(m.latencySamples) > 0 {
		var total time.Duration
		for _, s := range m.latencySamples {
			total += s
		}
		snap.AverageLatency = total / time.Duration(len(m.latencySamples))
	}
	return snap
}
