package services

import (
	"sync/atomic"
	"time"
)

// Metrics holds process counters. One instance is built at startup and
// passed to whatever needs it.
type Metrics struct {
	detectionsLogged atomic.Int64
	httpErrors       atomic.Int64

	wsConnections atomic.Int64
	wsMessages    atomic.Int64
	wsErrors      atomic.Int64

	startTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncrementDetections() {
	m.detectionsLogged.Add(1)
}

func (m *Metrics) IncrementHTTPErrors() {
	m.httpErrors.Add(1)
}

func (m *Metrics) GetDetectionsLogged() int64 {
	return m.detectionsLogged.Load()
}

func (m *Metrics) GetHTTPErrors() int64 {
	return m.httpErrors.Load()
}

func (m *Metrics) IncrementWebSocketConnections() {
	m.wsConnections.Add(1)
}

func (m *Metrics) DecrementWebSocketConnections() {
	m.wsConnections.Add(-1)
}

func (m *Metrics) GetWebSocketConnections() int64 {
	return m.wsConnections.Load()
}

func (m *Metrics) IncrementWebSocketMessages() {
	m.wsMessages.Add(1)
}

func (m *Metrics) IncrementWebSocketErrors() {
	m.wsErrors.Add(1)
}

func (m *Metrics) UptimeSeconds() int64 {
	return int64(time.Since(m.startTime).Seconds())
}

// Snapshot returns a point-in-time view suitable for the metrics endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"detections_logged": m.detectionsLogged.Load(),
		"http_errors":       m.httpErrors.Load(),
		"ws_connections":    m.wsConnections.Load(),
		"ws_messages":       m.wsMessages.Load(),
		"ws_errors":         m.wsErrors.Load(),
		"uptime_sec":        m.UptimeSeconds(),
		"timestamp":         time.Now().Format(time.RFC3339),
	}
}
