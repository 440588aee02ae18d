package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementDetections()
	m.IncrementDetections()
	m.IncrementHTTPErrors()

	assert.Equal(t, int64(2), m.GetDetectionsLogged())
	assert.Equal(t, int64(1), m.GetHTTPErrors())

	m.IncrementWebSocketConnections()
	m.IncrementWebSocketConnections()
	m.DecrementWebSocketConnections()
	assert.Equal(t, int64(1), m.GetWebSocketConnections())
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementDetections()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), m.GetDetectionsLogged())
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncrementDetections()

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap["detections_logged"])
	for _, key := range []string{"http_errors", "ws_connections", "ws_messages", "ws_errors", "uptime_sec", "timestamp"} {
		assert.Contains(t, snap, key)
	}
}
