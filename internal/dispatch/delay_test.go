package dispatch

import (
	"math/rand"
	"testing"
	"time"
)

func testPolicy(seed int64) *DelayPolicy {
	return &DelayPolicy{
		Mean:          90 * time.Second,
		StdDev:        0,
		Min:           45 * time.Second,
		BatchEvery:    5,
		BatchPauseMin: 300 * time.Second,
		BatchPauseMax: 600 * time.Second,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func TestNextDisabledReturnsZero(t *testing.T) {
	p := testPolicy(1)
	p.Disabled = true

	for sent := 0; sent < 10; sent++ {
		if d := p.Next(sent); d != 0 {
			t.Fatalf("expected zero delay when disabled, got %v", d)
		}
	}
}

func TestNextStaysWithinJitterRange(t *testing.T) {
	p := testPolicy(42)

	// With zero stddev the Gaussian draw is exactly the mean, so only the
	// multiplicative jitter remains: [0.8, 1.2] of 90s.
	for i := 0; i < 200; i++ {
		d := p.Next(1)
		if d < 72*time.Second || d > 108*time.Second {
			t.Fatalf("delay %v outside jitter range", d)
		}
	}
}

func TestNextEnforcesMinimum(t *testing.T) {
	p := testPolicy(7)
	p.Mean = 10 * time.Second

	for i := 0; i < 100; i++ {
		if d := p.Next(1); d < p.Min {
			t.Fatalf("delay %v below minimum %v", d, p.Min)
		}
	}
}

func TestNextAddsBatchPauseOnBoundary(t *testing.T) {
	p := testPolicy(99)

	d := p.Next(5)
	if d < p.BatchPauseMin {
		t.Fatalf("expected batch pause at send 5, got %v", d)
	}
	if d > 108*time.Second+p.BatchPauseMax {
		t.Fatalf("delay %v exceeds jitter plus batch pause ceiling", d)
	}
}

func TestNextNoBatchPauseOffBoundary(t *testing.T) {
	p := testPolicy(99)

	for _, sent := range []int{0, 1, 4, 6, 9} {
		if d := p.Next(sent); d >= p.BatchPauseMin {
			t.Fatalf("unexpected batch pause at send %d: %v", sent, d)
		}
	}
}

func TestNewDelayPolicySeedsDefaultSource(t *testing.T) {
	p := &DelayPolicy{Mean: time.Second, Min: time.Second, rng: nil}
	if p.rng != nil {
		t.Fatal("precondition failed")
	}

	// NewDelayPolicy always installs a source; the zero-value struct is only
	// valid in tests that set rng themselves.
	np := NewDelayPolicy(staticDispatchConfig{}, nil)
	if np.rng == nil {
		t.Fatal("expected a seeded source")
	}
}

type staticDispatchConfig struct{}

func (staticDispatchConfig) GetDailyEmailLimit() int            { return 20 }
func (staticDispatchConfig) GetMaxAttemptsPerLead() int         { return 2 }
func (staticDispatchConfig) GetDelayMean() time.Duration        { return 90 * time.Second }
func (staticDispatchConfig) GetDelayStdDev() time.Duration      { return 30 * time.Second }
func (staticDispatchConfig) GetDelayMin() time.Duration         { return 45 * time.Second }
func (staticDispatchConfig) GetBatchPauseEvery() int            { return 5 }
func (staticDispatchConfig) GetBatchPauseMin() time.Duration    { return 300 * time.Second }
func (staticDispatchConfig) GetBatchPauseMax() time.Duration    { return 600 * time.Second }
func (staticDispatchConfig) GetDelaysDisabled() bool            { return false }
func (staticDispatchConfig) GetSendTimeout() time.Duration      { return 30 * time.Second }
func (staticDispatchConfig) GetSendRetryAttempts() int          { return 3 }
func (staticDispatchConfig) GetSendRetryBackoff() time.Duration { return time.Second }
