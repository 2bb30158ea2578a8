package scheduler

import (
	"context"
	"errors"
	"testing"

	"outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/leads"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeCampaignStore struct {
	status     string
	statusErr  error
	queue      []leads.Lead
	leadsCalls int
}

func (f *fakeCampaignStore) GetCampaignStatus(_ context.Context, _ uuid.UUID) (string, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.status, nil
}

func (f *fakeCampaignStore) GetLeadsByCampaign(_ context.Context, _ uuid.UUID, _ ...leads.Status) ([]leads.Lead, error) {
	f.leadsCalls++
	return f.queue, nil
}

func dispatchTask(t *testing.T, campaignID string) *asynq.Task {
	t.Helper()
	task, err := NewCampaignDispatchTask(CampaignDispatchPayload{CampaignID: campaignID})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func testWorker(store *fakeCampaignStore) *Worker {
	return &Worker{repo: store, log: logger.New("development")}
}

func TestHandleCampaignDispatchSkipsPausedCampaign(t *testing.T) {
	store := &fakeCampaignStore{
		status: repository.CampaignStatusPaused,
		queue:  []leads.Lead{{ID: uuid.New(), Email: "a@empresa.com.br"}},
	}
	w := testWorker(store)

	if err := w.handleCampaignDispatch(context.Background(), dispatchTask(t, uuid.NewString())); err != nil {
		t.Fatalf("a paused campaign must be skipped without error, got %v", err)
	}
	if store.leadsCalls != 0 {
		t.Fatal("paused campaign must not load a queue; the operator decision stands")
	}
}

func TestHandleCampaignDispatchSkipsFinishedCampaign(t *testing.T) {
	store := &fakeCampaignStore{status: repository.CampaignStatusFinished}
	w := testWorker(store)

	if err := w.handleCampaignDispatch(context.Background(), dispatchTask(t, uuid.NewString())); err != nil {
		t.Fatalf("a finished campaign must be skipped without error, got %v", err)
	}
	if store.leadsCalls != 0 {
		t.Fatal("finished campaign must not load a queue")
	}
}

func TestHandleCampaignDispatchNoQueuedLeadsIsNoop(t *testing.T) {
	store := &fakeCampaignStore{status: repository.CampaignStatusActive}
	w := testWorker(store)

	if err := w.handleCampaignDispatch(context.Background(), dispatchTask(t, uuid.NewString())); err != nil {
		t.Fatalf("empty queue is a clean no-op, got %v", err)
	}
	if store.leadsCalls != 1 {
		t.Fatalf("expected one queue load, got %d", store.leadsCalls)
	}
}

func TestHandleCampaignDispatchReturnsStatusError(t *testing.T) {
	store := &fakeCampaignStore{statusErr: errors.New("db down")}
	w := testWorker(store)

	if err := w.handleCampaignDispatch(context.Background(), dispatchTask(t, uuid.NewString())); err == nil {
		t.Fatal("expected the status error back so asynq retries the task")
	}
}

func TestHandleCampaignDispatchRejectsBadCampaignID(t *testing.T) {
	w := testWorker(&fakeCampaignStore{status: repository.CampaignStatusActive})

	if err := w.handleCampaignDispatch(context.Background(), dispatchTask(t, "not-a-uuid")); err == nil {
		t.Fatal("expected an error for a malformed campaign id")
	}
}
