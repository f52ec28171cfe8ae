package server

import (
	"sync/atomic"
	"time"
)

// Metrics holds the server's runtime counters. All fields are updated with
// atomics so connection goroutines never contend on a lock.
type Metrics struct {
	RequestsTotal     atomic.Int64
	ActiveConnections atomic.Int64
	Errors4xx         atomic.Int64
	Errors5xx         atomic.Int64

	totalLatencyNs atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRequest accounts one completed request.
func (m *Metrics) RecordRequest(statusCode int, duration time.Duration) {
	m.RequestsTotal.Add(1)
	m.totalLatencyNs.Add(duration.Nanoseconds())

	switch {
	case statusCode >= 500:
		m.Errors5xx.Add(1)
	case statusCode >= 400:
		m.Errors4xx.Add(1)
	}
}

// AverageLatency is the mean latency over all recorded requests.
func (m *Metrics) AverageLatency() time.Duration {
	total := m.RequestsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// MetricsSnapshot is a consistent-enough copy of the counters for reporting.
type MetricsSnapshot struct {
	RequestsTotal     int64 `json:"requests_total"`
	ActiveConnections int64 `json:"active_connections"`
	Errors4xx         int64 `json:"errors_4xx"`
	Errors5xx         int64 `json:"errors_5xx"`
	AverageLatencyMS  int64 `json:"average_latency_ms"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:     m.RequestsTotal.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		Errors4xx:         m.Errors4xx.Load(),
		Errors5xx:         m.Errors5xx.Load(),
		AverageLatencyMS:  m.AverageLatency().Milliseconds(),
	}
}
