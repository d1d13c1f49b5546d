// Package metrics keeps per-provider performance and reliability counters
// for the analysis subsystem. State is per-process; running multiple
// instances behind a load balancer yields independent, non-aggregated
// stats.
package metrics

import (
	"sync"
	"time"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
)

// ProviderStats is a point-in-time snapshot of one provider's counters
type ProviderStats struct {
	Provider       string           `json:"provider"`
	TotalRequests  int64            `json:"total_requests"`
	Successes      int64            `json:"successes"`
	Failures       int64            `json:"failures"`
	SuccessRate    float64          `json:"success_rate"`
	AvgLatencyMs   float64          `json:"avg_latency_ms"`
	TotalTokens    int64            `json:"total_tokens"`
	FailuresByKind map[string]int64 `json:"failures_by_kind,omitempty"`
	LastSuccess    time.Time        `json:"last_success,omitzero"`
	LastFailure    time.Time        `json:"last_failure,omitzero"`
}

// providerCounters is the mutable per-provider state behind the lock
type providerCounters struct {
	successes      int64
	failures       int64
	latencySumMs   int64
	tokenSum       int64
	failuresByKind map[analysis.ErrorKind]int64
	lastSuccess    time.Time
	lastFailure    time.Time
}

// Collector is the shared, concurrency-safe counter store. The
// orchestrator is its only mutator; operators read snapshots on demand.
type Collector struct {
	mu        sync.RWMutex
	providers map[string]*providerCounters
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		providers: make(map[string]*providerCounters),
	}
}

// RecordSuccess adds a successful attempt for the named provider
func (c *Collector) RecordSuccess(name string, latencyMs int64, tokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counters := c.countersFor(name)
	counters.successes++
	counters.latencySumMs += latencyMs
	counters.tokenSum += int64(tokens)
	counters.lastSuccess = time.Now().UTC()
}

// RecordFailure adds a failed attempt for the named provider
func (c *Collector) RecordFailure(name string, kind analysis.ErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counters := c.countersFor(name)
	counters.failures++
	counters.failuresByKind[kind]++
	counters.lastFailure = time.Now().UTC()
}

// GetStats returns a computed snapshot for one provider. A provider that
// was never recorded yields zero-valued stats.
func (c *Collector) GetStats(name string) ProviderStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counters, exists := c.providers[name]
	if !exists {
		return ProviderStats{Provider: name}
	}
	return snapshot(name, counters)
}

// GetAllStats returns a snapshot for every provider ever recorded
func (c *Collector) GetAllStats() map[string]ProviderStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]ProviderStats, len(c.providers))
	for name, counters := range c.providers {
		out[name] = snapshot(name, counters)
	}
	return out
}

// Reset clears the counters for one provider; an unknown name is a no-op
func (c *Collector) Reset(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.providers, name)
}

// ResetAll clears every provider's counters
func (c *Collector) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers = make(map[string]*providerCounters)
}

// countersFor returns the counters for name, creating them on first use.
// Caller must hold the write lock.
func (c *Collector) countersFor(name string) *providerCounters {
	counters, exists := c.providers[name]
	if !exists {
		counters = &providerCounters{
			failuresByKind: make(map[analysis.ErrorKind]int64),
		}
		c.providers[name] = counters
	}
	return counters
}

// snapshot computes the derived fields. Caller must hold at least the
// read lock.
func snapshot(name string, counters *providerCounters) ProviderStats {
	total := counters.successes + counters.failures

	stats := ProviderStats{
		Provider:      name,
		TotalRequests: total,
		Successes:     counters.successes,
		Failures:      counters.failures,
		TotalTokens:   counters.tokenSum,
		LastSuccess:   counters.lastSuccess,
		LastFailure:   counters.lastFailure,
	}

	if total > 0 {
		stats.SuccessRate = float64(counters.successes) / float64(total)
	}
	if counters.successes > 0 {
		stats.AvgLatencyMs = float64(counters.latencySumMs) / float64(counters.successes)
	}
	if len(counters.failuresByKind) > 0 {
		stats.FailuresByKind = make(map[string]int64, len(counters.failuresByKind))
		for kind, count := range counters.failuresByKind {
			stats.FailuresByKind[kind.String()] = count
		}
	}

	return stats
}
