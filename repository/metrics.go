/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/statsd"
)

// Metrics receives per-operation counters and latencies. tags are
// "key:value" pairs.
type Metrics interface {
	Count(name string, tags ...string)
	Timing(name string, d time.Duration, tags ...string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) Count(string, ...string)                 {}
func (NopMetrics) Timing(string, time.Duration, ...string) {}

// MemoryMetrics keeps counters in memory. Used by tests and the stats command.
type MemoryMetrics struct {
	mu      sync.Mutex
	counts  map[string]int64
	timings map[string][]time.Duration
}

// NewMemoryMetrics returns an empty in-process sink.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		counts:  make(map[string]int64),
		timings: make(map[string][]time.Duration),
	}
}

func (m *MemoryMetrics) Count(name string, _ ...string) {
	m.mu.Lock()
	m.counts[name]++
	m.mu.Unlock()
}

func (m *MemoryMetrics) Timing(name string, d time.Duration, _ ...string) {
	m.mu.Lock()
	m.timings[name] = append(m.timings[name], d)
	m.mu.Unlock()
}

// Counter returns the current value of a counter.
func (m *MemoryMetrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

// Timings returns the recorded latencies of name.
func (m *MemoryMetrics) Timings(name string) []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.timings[name]...)
}

// Names returns every counter name in sorted order.
func (m *MemoryMetrics) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.counts))
	for name := range m.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tee fans every observation out to each sink.
type Tee []Metrics

func (t Tee) Count(name string, tags ...string) {
	for _, m := range t {
		m.Count(name, tags...)
	}
}

func (t Tee) Timing(name string, d time.Duration, tags ...string) {
	for _, m := range t {
		m.Timing(name, d, tags...)
	}
}

// StatsdMetrics forwards to a DogStatsD agent.
type StatsdMetrics struct {
	client *statsd.Client
	rate   float64
}

// NewStatsdMetrics connects to the agent at addr, e.g. "127.0.0.1:8125".
// Every metric name is prefixed with namespace.
func NewStatsdMetrics(addr, namespace string) (*StatsdMetrics, error) {
	client, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		return nil, err
	}
	return &StatsdMetrics{client: client, rate: 1}, nil
}

func (s *StatsdMetrics) Count(name string, tags ...string) {
	_ = s.client.Incr(name, tags, s.rate)
}

func (s *StatsdMetrics) Timing(name string, d time.Duration, tags ...string) {
	_ = s.client.Timing(name, d, tags, s.rate)
}

// Close flushes buffered metrics and closes the client.
func (s *StatsdMetrics) Close() error {
	return s.client.Close()
}

// Instrument wraps fn so every call counts name.calls, failures count
// name.errors and the latency is reported as name.duration.
func Instrument[A, R any](m Metrics, name string, fn func(context.Context, A) (R, error), tags ...string) func(context.Context, A) (R, error) {
	if m == nil {
		return fn
	}
	return func(ctx context.Context, a A) (R, error) {
		start := time.Now()
		r, err := fn(ctx, a)
		m.Timing(name+".duration", time.Since(start), tags...)
		m.Count(name+".calls", tags...)
		if err != nil {
			m.Count(name+".errors", tags...)
		}
		return r, err
	}
}
