// Package stats collects solver counters and exports them to memory, Prometheus or
// compressed JSON lines.
package stats

import (
	"sort"
	"sync"
)

// Sink receives named counters from a solver.
type Sink interface {
	Counter(name string, value int64)
}

// Reporter is implemented by every solver component that produces counters.
type Reporter interface {
	OutputStatistics(sink Sink)
}

// Memory is an in-memory Sink. Later values for the same name overwrite earlier ones.
type Memory struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemory creates an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]int64)}
}

func (m *Memory) Counter(name string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Get returns a counter and whether it was reported.
func (m *Memory) Get(name string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok
}

// Snapshot copies all counters.
func (m *Memory) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Names returns the reported counter names in sorted order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.values))
	for k := range m.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Prefixed returns a Sink that prepends prefix to every counter name.
func Prefixed(sink Sink, prefix string) Sink {
	return prefixed{sink: sink, prefix: prefix}
}

type prefixed struct {
	sink   Sink
	prefix string
}

func (p prefixed) Counter(name string, value int64) { p.sink.Counter(p.prefix+name, value) }

// Multi fans counters out to several sinks.
type Multi []Sink

func (m Multi) Counter(name string, value int64) {
	for _, s := range m {
		s.Counter(name, value)
	}
}
