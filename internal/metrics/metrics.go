// Package metrics provides a small instrumentation surface with a no-op
// default and a Prometheus-backed implementation enabled from config.
package metrics

import (
	"net/http"
	"sync"
	"time"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncProviderCall(provider string, success bool)
	ObserveProviderSeconds(provider string, success bool, seconds float64)
	AddRowsProcessed(n int)
	IncChangeOp(op string, success bool)
}

// noopRecorder implements Recorder with no-ops.
type noopRecorder struct{}

func (n *noopRecorder) IncProviderCall(string, bool)                {}
func (n *noopRecorder) ObserveProviderSeconds(string, bool, float64) {}
func (n *noopRecorder) AddRowsProcessed(int)                         {}
func (n *noopRecorder) IncChangeOp(string, bool)                     {}

var (
	recMu    sync.RWMutex
	recorder Recorder = &noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	recorder = r
}

// TimeProvider is a helper to time one provider call.
func TimeProvider(provider string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncProviderCall(provider, success)
		Default().ObserveProviderSeconds(provider, success, dur)
	}
}

// Enable installs the Prometheus recorder and returns the handler that
// serves its registry.
func Enable() http.Handler {
	p, h := newPrometheus()
	SetRecorder(p)
	return h
}
