package dispatch

import (
	"context"
	"errors"
	"testing"
)

type fakeCounter struct {
	count int
	incs  int
	err   error
}

func (f *fakeCounter) CountSentToday(_ context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func (f *fakeCounter) IncrementSentToday() {
	f.incs++
	f.count++
}

func TestReserveUnderLimit(t *testing.T) {
	guard := NewQuotaGuard()
	counter := &fakeCounter{count: 5}

	ok, err := guard.Reserve(context.Background(), counter, 20)
	if err != nil || !ok {
		t.Fatalf("expected reservation under limit, got ok=%v err=%v", ok, err)
	}
}

func TestReserveAtLimitRefuses(t *testing.T) {
	guard := NewQuotaGuard()
	counter := &fakeCounter{count: 20}

	ok, err := guard.Reserve(context.Background(), counter, 20)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatal("expected refusal at the limit")
	}
}

func TestReserveCountsOutstandingReservations(t *testing.T) {
	guard := NewQuotaGuard()
	counter := &fakeCounter{count: 19}
	ctx := context.Background()

	ok, err := guard.Reserve(ctx, counter, 20)
	if err != nil || !ok {
		t.Fatalf("first reservation should succeed, got ok=%v err=%v", ok, err)
	}

	// The first slot is reserved but not yet counted; a second runner must
	// still see the quota as full.
	ok, err = guard.Reserve(ctx, counter, 20)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatal("expected second reservation to be refused")
	}
}

func TestReleaseAfterSendBumpsCounterBeforeFreeingSlot(t *testing.T) {
	guard := NewQuotaGuard()
	counter := &fakeCounter{count: 19}
	ctx := context.Background()

	if ok, _ := guard.Reserve(ctx, counter, 20); !ok {
		t.Fatal("reservation should succeed")
	}
	guard.Release(counter, true)

	if counter.incs != 1 {
		t.Fatalf("expected counter bump on successful send, got %d", counter.incs)
	}
	if ok, _ := guard.Reserve(ctx, counter, 20); ok {
		t.Fatal("quota should be exhausted after the send counted")
	}
}

func TestReleaseWithoutSendFreesSlot(t *testing.T) {
	guard := NewQuotaGuard()
	counter := &fakeCounter{count: 19}
	ctx := context.Background()

	if ok, _ := guard.Reserve(ctx, counter, 20); !ok {
		t.Fatal("reservation should succeed")
	}
	guard.Release(counter, false)

	if counter.incs != 0 {
		t.Fatalf("skip must not consume quota, got %d increments", counter.incs)
	}
	if ok, _ := guard.Reserve(ctx, counter, 20); !ok {
		t.Fatal("slot should be reusable after a skip")
	}
}

func TestReservePropagatesCounterError(t *testing.T) {
	guard := NewQuotaGuard()
	counter := &fakeCounter{err: errors.New("ledger down")}

	if _, err := guard.Reserve(context.Background(), counter, 20); err == nil {
		t.Fatal("expected counter error to propagate")
	}
}
