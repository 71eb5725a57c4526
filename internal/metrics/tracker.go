package metrics

import (
	"fmt"
	"sync"
)

type counts struct {
	success int64
	total   int64
}

// Tracker keeps per-provider attempt counters. The success rate is a soft
// routing signal only: a provider at 0% stays eligible when nothing better
// is admissible.
type Tracker struct {
	mu       sync.RWMutex
	counters map[string]*counts
}

func NewTracker() *Tracker {
	return &Tracker{
		counters: make(map[string]*counts),
	}
}

// RecordAttempt increments total. Called before every provider call.
func (t *Tracker) RecordAttempt(providerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counter(providerID).total++
}

// RecordSuccess increments success. Called only after a validated success.
func (t *Tracker) RecordSuccess(providerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counter(providerID).success++
}

func (t *Tracker) counter(providerID string) *counts {
	c, ok := t.counters[providerID]
	if !ok {
		c = &counts{}
		t.counters[providerID] = c
	}
	return c
}

// Rate returns the success ratio in [0,1]. Zero attempts count as zero.
func (t *Tracker) Rate(providerID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.counters[providerID]
	if !ok || c.total == 0 {
		return 0
	}
	return float64(c.success) / float64(c.total)
}

// SuccessRate formats the rate for display, e.g. "66.7%", or "N/A" when the
// provider has never been attempted.
func (t *Tracker) SuccessRate(providerID string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.counters[providerID]
	if !ok || c.total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", float64(c.success)/float64(c.total)*100)
}

// Counts returns the raw counters for a provider.
func (t *Tracker) Counts(providerID string) (success, total int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.counters[providerID]
	if !ok {
		return 0, 0
	}
	return c.success, c.total
}
