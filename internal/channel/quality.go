package channel

import (
	"sync"
	"time"
)

// Quality classifies the connection from rolling round-trip samples.
type Quality string

// Connection quality buckets.
const (
	QualityGood         Quality = "good"
	QualityModerate     Quality = "moderate"
	QualityPoor         Quality = "poor"
	QualityDisconnected Quality = "disconnected"
)

// Thresholds are the tunable RTT boundaries between quality buckets.
type Thresholds struct {
	Good     time.Duration
	Moderate time.Duration
}

// DefaultThresholds are reasonable defaults for home networks.
func DefaultThresholds() Thresholds {
	return Thresholds{Good: 80 * time.Millisecond, Moderate: 250 * time.Millisecond}
}

const monitorWindow = 16

// Monitor keeps a rolling window of RTT samples and derives an average and
// a quality classification. Dropped pings (no pong within the deadline)
// count against quality without contributing a sample.
type Monitor struct {
	mu               sync.Mutex
	thresholds       Thresholds
	samples          []time.Duration
	consecutiveDrops int
}

// NewMonitor creates a monitor with the given thresholds.
func NewMonitor(thresholds Thresholds) *Monitor {
	if thresholds.Good == 0 || thresholds.Moderate == 0 {
		thresholds = DefaultThresholds()
	}
	return &Monitor{thresholds: thresholds}
}

// Record adds one RTT sample.
func (m *Monitor) Record(rtt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveDrops = 0
	m.samples = append(m.samples, rtt)
	if len(m.samples) > monitorWindow {
		m.samples = m.samples[len(m.samples)-monitorWindow:]
	}
}

// Drop records a ping that received no pong within the deadline.
func (m *Monitor) Drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consecutiveDrops++
}

// Reset clears all samples, e.g. after a reconnect.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	m.consecutiveDrops = 0
}

// AverageRTT returns the rolling average of the current window.
func (m *Monitor) AverageRTT() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.averageLocked()
}

// Classify derives the current quality bucket.
func (m *Monitor) Classify() Quality {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consecutiveDrops >= 3 {
		return QualityDisconnected
	}
	if len(m.samples) == 0 {
		return QualityModerate
	}
	avg := m.averageLocked()
	switch {
	case m.consecutiveDrops > 0:
		return QualityPoor
	case avg < m.thresholds.Good:
		return QualityGood
	case avg < m.thresholds.Moderate:
		return QualityModerate
	default:
		return QualityPoor
	}
}

func (m *Monitor) averageLocked() time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, sample := range m.samples {
		total += sample
	}
	return total / time.Duration(len(m.samples))
}
