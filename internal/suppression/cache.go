package suppression

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"outreach_backend/platform/logger"
)

// SetLoader reloads the full suppression set from the ledger on a cache miss.
type SetLoader interface {
	GetSuppressionSet(ctx context.Context) (map[string]struct{}, error)
}

// SentCounter reloads today's successful-send count from the ledger.
type SentCounter interface {
	GetSentCountSince(ctx context.Context, since time.Time) (int, error)
}

// Cache is the in-process, TTL-based view of the suppression set and of
// today's send counter. It is a single-process optimization layer: its only
// correctness contract is that a hit is never staler than its TTL and that
// Invalidate before a mutation returns makes the next read fresh. Reads are
// far more frequent than writes, so the set sits behind an RWMutex and
// writers only take the exclusive section to swap the map and bump expiry.
type Cache struct {
	sets   SetLoader
	counts SentCounter
	now    func() time.Time
	log    *logger.Logger

	setTTL   time.Duration
	countTTL time.Duration

	mu        sync.RWMutex
	set       map[string]struct{}
	setExpiry time.Time

	countMu     sync.Mutex
	sentToday   atomic.Int64
	countDay    time.Time
	countExpiry time.Time
}

// NewCache creates a cache over the given loaders. The clock is injected so
// tests can control expiry; pass time.Now in production.
func NewCache(sets SetLoader, counts SentCounter, setTTL, countTTL time.Duration, now func() time.Time, log *logger.Logger) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		sets:     sets,
		counts:   counts,
		now:      now,
		log:      log,
		setTTL:   setTTL,
		countTTL: countTTL,
	}
}

// IsSuppressed reports whether the address is on the suppression list. An
// expired snapshot behaves exactly like a miss: the full set is reloaded and
// swapped in atomically, so readers never observe a half-populated cache.
func (c *Cache) IsSuppressed(ctx context.Context, email string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	c.mu.RLock()
	if c.set != nil && c.now().Before(c.setExpiry) {
		_, hit := c.set[key]
		c.mu.RUnlock()
		return hit, nil
	}
	c.mu.RUnlock()

	set, err := c.reloadSet(ctx)
	if err != nil {
		return false, err
	}

	_, hit := set[key]
	return hit, nil
}

// Invalidate expires the suppression set snapshot. Mutators must call this
// before reporting success so the very next lookup reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.setExpiry = time.Time{}
	c.mu.Unlock()
}

// CountSentToday returns the number of successful sends since local midnight,
// reloading from the ledger when the snapshot is expired or from a past day.
func (c *Cache) CountSentToday(ctx context.Context) (int, error) {
	c.countMu.Lock()
	defer c.countMu.Unlock()

	now := c.now()
	midnight := dayStart(now)

	if c.countDay.Equal(midnight) && now.Before(c.countExpiry) {
		return int(c.sentToday.Load()), nil
	}

	count, err := c.counts.GetSentCountSince(ctx, midnight)
	if err != nil {
		return 0, err
	}

	c.sentToday.Store(int64(count))
	c.countDay = midnight
	c.countExpiry = now.Add(c.countTTL)
	return count, nil
}

// IncrementSentToday optimistically bumps the cached counter after a
// successful send, avoiding a ledger round-trip on the hot path. If the
// cached day has rolled over the stale entry is discarded instead of bumped.
func (c *Cache) IncrementSentToday() {
	c.countMu.Lock()
	defer c.countMu.Unlock()

	now := c.now()
	if !c.countDay.Equal(dayStart(now)) || !now.Before(c.countExpiry) {
		c.countExpiry = time.Time{}
		return
	}

	c.sentToday.Add(1)
}

// InvalidateDailyCount expires the counter snapshot.
func (c *Cache) InvalidateDailyCount() {
	c.countMu.Lock()
	c.countExpiry = time.Time{}
	c.countMu.Unlock()
}

func (c *Cache) reloadSet(ctx context.Context) (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another reader may have reloaded while we waited for the lock.
	if c.set != nil && c.now().Before(c.setExpiry) {
		return c.set, nil
	}

	set, err := c.sets.GetSuppressionSet(ctx)
	if err != nil {
		return nil, err
	}

	c.set = set
	c.setExpiry = c.now().Add(c.setTTL)
	if c.log != nil {
		c.log.CacheRefresh("suppression_set", len(set))
	}
	return set, nil
}

func dayStart(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
