// Package admission meters downloads per client identity and decides when
// an advertisement must be shown before the next download proceeds.
package admission

import (
	"sync"
	"sync/atomic"

	"github.com/denisAlshanov/audiograb/internal/models"
)

const DefaultThreshold = 20

const ackMessage = "Counter acknowledged. Keep downloading!"

// Gate holds one cyclic counter per identity. Counters are created on the
// first recorded download and live for the rest of the process.
type Gate struct {
	counters  map[string]*atomic.Uint64
	mu        sync.RWMutex
	threshold uint64
}

func NewGate(threshold int) *Gate {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return &Gate{
		counters:  make(map[string]*atomic.Uint64),
		threshold: uint64(threshold),
	}
}

// RecordDownload increments the identity's counter by one.
func (g *Gate) RecordDownload(identity string) models.AdStatus {
	count := g.counter(identity).Add(1)

	requiresAd := count%g.threshold == 0
	status := models.AdStatus{
		Count:      count,
		RequiresAd: requiresAd,
	}
	if !requiresAd {
		status.DownloadsUntilAd = g.threshold - count%g.threshold
	}
	return status
}

// AcknowledgeAd leaves the counter untouched; the next gate is simply the
// next multiple of the threshold.
func (g *Gate) AcknowledgeAd(identity string) models.AdAckResponse {
	return models.AdAckResponse{
		Success: true,
		Message: ackMessage,
	}
}

// QueryStatus is a pure read. Unseen identities report a zero count.
func (g *Gate) QueryStatus(identity string) models.AdStatus {
	g.mu.RLock()
	c, ok := g.counters[identity]
	g.mu.RUnlock()

	var count uint64
	if ok {
		count = c.Load()
	}
	return models.AdStatus{
		Count:            count,
		RequiresAd:       count > 0 && count%g.threshold == 0,
		DownloadsUntilAd: g.threshold - count%g.threshold,
	}
}

// TrackedIdentities returns the number of identities with a counter.
func (g *Gate) TrackedIdentities() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.counters)
}

func (g *Gate) counter(identity string) *atomic.Uint64 {
	g.mu.RLock()
	c, ok := g.counters[identity]
	g.mu.RUnlock()
	if ok {
		return c
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok = g.counters[identity]; !ok {
		c = new(atomic.Uint64)
		g.counters[identity] = c
	}
	return c
}
