package graph

import (
	"sort"
	"sync"
)

// SignalTable is the named-scalar table that external systems (input,
// gameplay, audio analysis) write and that a single, documented node type
// per domain may read during Evaluate.
//
// It is the only state a node may observe beyond its inputs and context.
// It must reach nodes through the execution context, never through a
// package-level variable, so Evaluate stays testable with a fake table.
type SignalTable interface {
	Signal(name string) (float64, bool)
}

// MapSignals is a mutex-guarded SignalTable backed by a map. The zero value
// is ready to use.
type MapSignals struct {
	mu      sync.RWMutex
	signals map[string]float64
}

// NewMapSignals creates a table seeded with initial. initial is copied.
func NewMapSignals(initial map[string]float64) *MapSignals {
	m := &MapSignals{signals: make(map[string]float64, len(initial))}
	for k, v := range initial {
		m.signals[k] = v
	}
	return m
}

// Signal implements SignalTable.
func (m *MapSignals) Signal(name string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.signals[name]
	return v, ok
}

// Set writes a signal.
func (m *MapSignals) Set(name string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signals == nil {
		m.signals = make(map[string]float64)
	}
	m.signals[name] = v
}

// Delete removes a signal.
func (m *MapSignals) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.signals, name)
}

// Names returns the signal names in sorted order.
func (m *MapSignals) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.signals))
	for k := range m.signals {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
