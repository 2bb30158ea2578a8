package suppression

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach_backend/platform/logger"
)

type fakeSetLoader struct {
	set   map[string]struct{}
	err   error
	loads int
}

func (f *fakeSetLoader) GetSuppressionSet(_ context.Context) (map[string]struct{}, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]struct{}, len(f.set))
	for k := range f.set {
		out[k] = struct{}{}
	}
	return out, nil
}

type fakeSentCounter struct {
	count int
	since time.Time
	err   error
	loads int
}

func (f *fakeSentCounter) GetSentCountSince(_ context.Context, since time.Time) (int, error) {
	f.loads++
	f.since = since
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(sets *fakeSetLoader, counts *fakeSentCounter, clock *fakeClock) *Cache {
	return NewCache(sets, counts, 5*time.Minute, time.Minute, clock.now, logger.New("development"))
}

func TestIsSuppressedServesFromSnapshotUntilExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	sets := &fakeSetLoader{set: map[string]struct{}{"ana@empresa.com.br": {}}}
	cache := newTestCache(sets, &fakeSentCounter{}, clock)

	ctx := context.Background()
	hit, err := cache.IsSuppressed(ctx, "ana@empresa.com.br")
	if err != nil || !hit {
		t.Fatalf("expected hit on first lookup, got hit=%v err=%v", hit, err)
	}
	if sets.loads != 1 {
		t.Fatalf("expected one load, got %d", sets.loads)
	}

	clock.advance(4 * time.Minute)
	if _, err := cache.IsSuppressed(ctx, "outro@empresa.com.br"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sets.loads != 1 {
		t.Fatalf("expected snapshot reuse inside TTL, got %d loads", sets.loads)
	}

	clock.advance(2 * time.Minute)
	if _, err := cache.IsSuppressed(ctx, "ana@empresa.com.br"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sets.loads != 2 {
		t.Fatalf("expected reload after TTL, got %d loads", sets.loads)
	}
}

func TestIsSuppressedNormalizesLookupKey(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sets := &fakeSetLoader{set: map[string]struct{}{"ana@empresa.com.br": {}}}
	cache := newTestCache(sets, &fakeSentCounter{}, clock)

	hit, err := cache.IsSuppressed(context.Background(), "  Ana@Empresa.com.br ")
	if err != nil || !hit {
		t.Fatalf("expected normalized lookup to hit, got hit=%v err=%v", hit, err)
	}
}

func TestInvalidateForcesReloadOnNextLookup(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sets := &fakeSetLoader{set: map[string]struct{}{}}
	cache := newTestCache(sets, &fakeSentCounter{}, clock)

	ctx := context.Background()
	if hit, _ := cache.IsSuppressed(ctx, "nova@empresa.com.br"); hit {
		t.Fatal("expected miss before suppression")
	}

	sets.set["nova@empresa.com.br"] = struct{}{}
	cache.Invalidate()

	hit, err := cache.IsSuppressed(ctx, "nova@empresa.com.br")
	if err != nil || !hit {
		t.Fatalf("expected fresh entry visible right after Invalidate, got hit=%v err=%v", hit, err)
	}
	if sets.loads != 2 {
		t.Fatalf("expected reload after invalidate, got %d loads", sets.loads)
	}
}

func TestIsSuppressedPropagatesLoaderError(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cache := newTestCache(&fakeSetLoader{err: errors.New("db down")}, &fakeSentCounter{}, clock)

	if _, err := cache.IsSuppressed(context.Background(), "a@b.com"); err == nil {
		t.Fatal("expected loader error to propagate")
	}
}

func TestCountSentTodayReloadsFromLocalMidnight(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)}
	counts := &fakeSentCounter{count: 7}
	cache := newTestCache(&fakeSetLoader{}, counts, clock)

	got, err := cache.CountSentToday(context.Background())
	if err != nil || got != 7 {
		t.Fatalf("expected count 7, got %d err=%v", got, err)
	}

	wantMidnight := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if !counts.since.Equal(wantMidnight) {
		t.Fatalf("expected reload since %v, got %v", wantMidnight, counts.since)
	}
}

func TestIncrementSentTodayBumpsFreshSnapshot(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)}
	counts := &fakeSentCounter{count: 3}
	cache := newTestCache(&fakeSetLoader{}, counts, clock)

	ctx := context.Background()
	if _, err := cache.CountSentToday(ctx); err != nil {
		t.Fatalf("count: %v", err)
	}

	cache.IncrementSentToday()
	got, err := cache.CountSentToday(ctx)
	if err != nil || got != 4 {
		t.Fatalf("expected incremented count 4 without reload, got %d err=%v", got, err)
	}
	if counts.loads != 1 {
		t.Fatalf("expected increment to avoid a ledger round-trip, got %d loads", counts.loads)
	}
}

func TestIncrementSentTodayDiscardsAcrossMidnight(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)}
	counts := &fakeSentCounter{count: 19}
	cache := newTestCache(&fakeSetLoader{}, counts, clock)

	ctx := context.Background()
	if _, err := cache.CountSentToday(ctx); err != nil {
		t.Fatalf("count: %v", err)
	}

	// The day rolls over between the snapshot and the increment; bumping the
	// stale value would smear yesterday's sends into today's quota.
	clock.advance(2 * time.Minute)
	counts.count = 0
	cache.IncrementSentToday()

	got, err := cache.CountSentToday(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected fresh day to reload to 0, got %d", got)
	}
	if counts.loads != 2 {
		t.Fatalf("expected a reload after rollover, got %d loads", counts.loads)
	}
}

func TestCountSentTodayExpiresByTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	counts := &fakeSentCounter{count: 5}
	cache := newTestCache(&fakeSetLoader{}, counts, clock)

	ctx := context.Background()
	if _, err := cache.CountSentToday(ctx); err != nil {
		t.Fatalf("count: %v", err)
	}

	clock.advance(30 * time.Second)
	if _, err := cache.CountSentToday(ctx); err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts.loads != 1 {
		t.Fatalf("expected snapshot reuse inside TTL, got %d loads", counts.loads)
	}

	clock.advance(time.Minute)
	counts.count = 9
	got, err := cache.CountSentToday(ctx)
	if err != nil || got != 9 {
		t.Fatalf("expected reload after TTL to see 9, got %d err=%v", got, err)
	}
}
