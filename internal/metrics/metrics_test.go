package metrics

import (
	"sync"
	"testing"
)

type captureBackend struct {
	mu     sync.Mutex
	counts map[string]float64
	obs    map[string][]float64
}

func newCapture() *captureBackend {
	return &captureBackend{counts: map[string]float64{}, obs: map[string][]float64{}}
}

func (c *captureBackend) IncCounter(name string, delta float64, _ Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += delta
}

func (c *captureBackend) ObserveHistogram(name string, value float64, _ Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs[name] = append(c.obs[name], value)
}

func (c *captureBackend) Flush() error { return nil }
func (c *captureBackend) Close() error { return nil }

func TestSetBackend_RoutesObservations(t *testing.T) {
	b := newCapture()
	SetBackend(b)
	defer SetBackend(nil)

	IncCounter(PhaseTotal, 1, Labels{"phase": "events"})
	IncCounter(PhaseTotal, 1, Labels{"phase": "events"})
	ObserveHistogram(PhaseDurationSeconds, 1.5, nil)

	if b.counts[PhaseTotal] != 2 {
		t.Fatalf("counter = %v, want 2", b.counts[PhaseTotal])
	}
	if len(b.obs[PhaseDurationSeconds]) != 1 {
		t.Fatalf("observations = %v", b.obs[PhaseDurationSeconds])
	}
}

// With no backend installed, the helpers must be safe no-ops.
func TestDefaultBackendIsNop(t *testing.T) {
	SetBackend(nil)

	IncCounter(RecordsTotal, 1, nil)
	ObserveHistogram(PhaseDurationSeconds, 0.1, nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
