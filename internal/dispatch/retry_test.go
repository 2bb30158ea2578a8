package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach_backend/internal/email"
)

func transientErr(msg string) error {
	return &email.SendError{StatusCode: 500, Transient: true, Err: errors.New(msg)}
}

func terminalErr(msg string) error {
	return &email.SendError{StatusCode: 422, Transient: false, Err: errors.New(msg)}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("expected single successful call, got calls=%d err=%v", calls, err)
	}
}

func TestDoRetriesTransientFailure(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return transientErr("provider 500")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnTerminalFailure(t *testing.T) {
	p := NewRetryPolicy(5, time.Millisecond)

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return terminalErr("invalid recipient")
	})
	if err == nil {
		t.Fatal("expected terminal error back")
	}
	if calls != 1 {
		t.Fatalf("terminal failures must not be retried, got %d calls", calls)
	}
}

func TestDoExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return transientErr("still down")
	})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}

	var sendErr *email.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected the provider error back, got %v", err)
	}
}

func TestDoHonorsCancelledContext(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls after cancellation, got %d", calls)
	}
}

func TestNewRetryPolicyFloorsAttempts(t *testing.T) {
	p := NewRetryPolicy(0, time.Millisecond)
	if p.MaxAttempts != 1 {
		t.Fatalf("expected floor of 1 attempt, got %d", p.MaxAttempts)
	}
}
