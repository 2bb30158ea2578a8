package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"outreach_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var order []string
	bus.Subscribe("lead.suppressed", HandlerFunc(func(context.Context, Event) error {
		order = append(order, "first")
		return nil
	}))
	bus.Subscribe("lead.suppressed", HandlerFunc(func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "lead.suppressed"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected registration order, got %v", order)
	}
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	wantErr := errors.New("handler broke")
	bus.Subscribe("email.failed", HandlerFunc(func(context.Context, Event) error {
		return wantErr
	}))
	bus.Subscribe("email.failed", HandlerFunc(func(context.Context, Event) error {
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "email.failed"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error back, got %v", err)
	}
}

func TestPublishIsAsynchronous(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe("email.sent", HandlerFunc(func(context.Context, Event) error {
		wg.Done()
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "email.sent"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}

func TestPublishSurvivesPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	bus.Subscribe("campaign.started", HandlerFunc(func(context.Context, Event) error {
		panic("boom")
	}))

	ran := make(chan struct{})
	bus.Subscribe("campaign.started", HandlerFunc(func(context.Context, Event) error {
		close(ran)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "campaign.started"})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("panic in an earlier handler must not stop later handlers")
	}
}

func TestPublishNoHandlersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "unheard"})
	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "unheard"}); err != nil {
		t.Fatalf("expected nil for unheard event, got %v", err)
	}
}
