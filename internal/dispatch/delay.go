// Package dispatch walks an ordered queue of qualified leads and sends one
// message at a time, enforcing the daily quota, the per-lead attempt ceiling,
// and a human-paced inter-send delay.
package dispatch

import (
	"math/rand"
	"sync"
	"time"

	"outreach_backend/platform/config"
)

// DelayPolicy computes the randomized pause between sends: a Gaussian draw
// with multiplicative jitter, a larger batch pause every few sends, and a
// hard minimum. The delay is an anti-throttling heuristic, not a correctness
// concern, so it can be disabled outright for tests.
type DelayPolicy struct {
	Mean          time.Duration
	StdDev        time.Duration
	Min           time.Duration
	BatchEvery    int
	BatchPauseMin time.Duration
	BatchPauseMax time.Duration
	Disabled      bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDelayPolicy builds the policy from configuration. A nil rng falls back
// to a time-seeded source; tests inject a fixed seed.
func NewDelayPolicy(cfg config.DispatchConfig, rng *rand.Rand) *DelayPolicy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DelayPolicy{
		Mean:          cfg.GetDelayMean(),
		StdDev:        cfg.GetDelayStdDev(),
		Min:           cfg.GetDelayMin(),
		BatchEvery:    cfg.GetBatchPauseEvery(),
		BatchPauseMin: cfg.GetBatchPauseMin(),
		BatchPauseMax: cfg.GetBatchPauseMax(),
		Disabled:      cfg.GetDelaysDisabled(),
		rng:           rng,
	}
}

// Next returns the delay to apply after the given number of completed sends.
func (p *DelayPolicy) Next(sent int) time.Duration {
	if p.Disabled {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	gauss := time.Duration(float64(p.Mean) + p.rng.NormFloat64()*float64(p.StdDev))
	jitter := 0.8 + 0.4*p.rng.Float64()
	delay := time.Duration(float64(gauss) * jitter)

	if p.BatchEvery > 0 && sent > 0 && sent%p.BatchEvery == 0 {
		spread := float64(p.BatchPauseMax - p.BatchPauseMin)
		delay += p.BatchPauseMin + time.Duration(p.rng.Float64()*spread)
	}

	if delay < p.Min {
		delay = p.Min
	}
	return delay
}
