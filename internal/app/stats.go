package app

import (
	"sync"
	"time"
)

// toolCounters is one tool's running totals.
type toolCounters struct {
	Calls  int64 `json:"calls"`
	Errors int64 `json:"errors"`
}

// Stats accumulates per-tool invocation counters for the diagnostics
// endpoint. It satisfies tools.Recorder, so the registry feeds it one
// observation per call. Counters only; tool arguments and outputs are
// never retained.
type Stats struct {
	mu      sync.Mutex
	started time.Time
	tools   map[string]*toolCounters
}

func NewStats() *Stats {
	return &Stats{
		started: time.Now(),
		tools:   make(map[string]*toolCounters),
	}
}

// Record counts one tool invocation. failed marks replies that went back
// to the model as errors.
func (s *Stats) Record(tool string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.tools[tool]
	if c == nil {
		c = &toolCounters{}
		s.tools[tool] = c
	}
	c.Calls++
	if failed {
		c.Errors++
	}
}

// Uptime reports how long this process has been serving.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.started)
}

// Snapshot is the JSON shape of the /stats endpoint.
type Snapshot struct {
	Uptime      string                  `json:"uptime"`
	TotalCalls  int64                   `json:"total_calls"`
	TotalErrors int64                   `json:"total_errors"`
	Tools       map[string]toolCounters `json:"tools"`
}

// Snapshot copies the counters out under the lock so the HTTP handler
// can encode them without racing Record.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Uptime: s.Uptime().Round(time.Second).String(),
		Tools:  make(map[string]toolCounters, len(s.tools)),
	}
	for name, c := range s.tools {
		out.Tools[name] = *c
		out.TotalCalls += c.Calls
		out.TotalErrors += c.Errors
	}
	return out
}
