package dispatch

import (
	"context"
	"sync"
)

// QuotaCounter is the daily-send view the quota gate consults, normally the
// suppression cache's counter.
type QuotaCounter interface {
	CountSentToday(ctx context.Context) (int, error)
	IncrementSentToday()
}

// QuotaGuard serializes the quota check across concurrently running
// campaigns. The daily limit is global, so two runners must not both observe
// "quota available" and jointly overshoot; a reservation is taken inside a
// narrow critical section and released after the send completes, keeping the
// provider call itself outside any lock.
type QuotaGuard struct {
	mu       sync.Mutex
	reserved int
}

// NewQuotaGuard creates the shared guard. One per process.
func NewQuotaGuard() *QuotaGuard {
	return &QuotaGuard{}
}

// Reserve claims one send slot if today's count plus outstanding
// reservations is below the limit. Returns false when the quota is exhausted.
func (g *QuotaGuard) Reserve(ctx context.Context, counter QuotaCounter, limit int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	count, err := counter.CountSentToday(ctx)
	if err != nil {
		return false, err
	}
	if count+g.reserved >= limit {
		return false, nil
	}

	g.reserved++
	return true, nil
}

// Release returns a reservation. On a successful send the counter is bumped
// before the slot is freed, so the next Reserve sees a consistent total.
func (g *QuotaGuard) Release(counter QuotaCounter, sent bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if sent {
		counter.IncrementSentToday()
	}
	if g.reserved > 0 {
		g.reserved--
	}
}
