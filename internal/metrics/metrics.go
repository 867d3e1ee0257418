// Package metrics is the thin seam between the pipeline and whatever
// telemetry backend the operator configured. The pipeline only ever calls
// the package-level helpers; the default backend drops everything.
package metrics

import "sync"

// Labels tag one observation. Small maps, copied by backends as needed.
type Labels map[string]string

// Backend receives observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush pushes buffered observations out. Close flushes once more and
	// releases resources.
	Flush() error
	Close() error
}

// Metric names the pipeline emits.
const (
	PhaseTotal           = "loader.phase.total"
	PhaseDurationSeconds = "loader.phase.duration_seconds"
	RecordsTotal         = "loader.records.total"
	TournamentsFailed    = "loader.tournaments.failed"
)

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. Passing nil restores
// the no-op default.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

func Flush() error { return current().Flush() }

func Close() error { return current().Close() }

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)        {}
func (nopBackend) ObserveHistogram(string, float64, Labels)  {}
func (nopBackend) Flush() error                              { return nil }
func (nopBackend) Close() error                              { return nil }
