package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Lightweight process-wide timing for generation and streaming hot paths.
// Safe to call from pool workers and the control loop at the same time.

// Sample aggregates every call recorded under one name.
type Sample struct {
	Name  string
	Calls int
	Total time.Duration
}

// Mean returns the average duration per call.
func (s Sample) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

var (
	mu      sync.Mutex
	samples = make(map[string]*Sample)
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("meshing.Build")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s, ok := samples[name]
		if !ok {
			s = &Sample{Name: name}
			samples[name] = s
		}
		s.Calls++
		s.Total += d
		mu.Unlock()
	}
}

// Reset clears all recorded samples.
func Reset() {
	mu.Lock()
	clear(samples)
	mu.Unlock()
}

// Snapshot returns a copy of the recorded samples, slowest total first.
func Snapshot() []Sample {
	mu.Lock()
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		out = append(out, *s)
	}
	mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n slowest totals.
// Example: "meshing.Build:412.3ms/36, noise.Generate:201.0ms/49"
func TopN(n int) string {
	ss := Snapshot()
	n = min(n, len(ss))
	parts := make([]string, 0, n)
	for _, s := range ss[:n] {
		ms := float64(s.Total.Microseconds()) / 1000.0
		parts = append(parts, fmt.Sprintf("%s:%.1fms/%d", s.Name, ms, s.Calls))
	}
	return strings.Join(parts, ", ")
}
