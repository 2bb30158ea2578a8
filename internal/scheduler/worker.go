package scheduler

import (
	"context"
	"fmt"

	"outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/dispatch"
	"outreach_backend/internal/leads"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// campaignStore is the slice of the ledger the worker consults before a run.
type campaignStore interface {
	GetCampaignStatus(ctx context.Context, id uuid.UUID) (string, error)
	GetLeadsByCampaign(ctx context.Context, campaignID uuid.UUID, statuses ...leads.Status) ([]leads.Lead, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	repo       campaignStore
	dispatcher *dispatch.Dispatcher
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, dispatcher *dispatch.Dispatcher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		repo:       repository.New(pool),
		dispatcher: dispatcher,
		log:        log,
	}

	mux.HandleFunc(TaskCampaignDispatch, w.handleCampaignDispatch)

	return w, nil
}

func (w *Worker) handleCampaignDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCampaignDispatchPayload(task)
	if err != nil {
		return err
	}

	campaignID, err := uuid.Parse(payload.CampaignID)
	if err != nil {
		return err
	}

	// The campaign is created active and Resume reactivates it before
	// enqueueing; anything else means an operator paused or cancelled between
	// enqueue and pickup, and that decision must stand.
	status, err := w.repo.GetCampaignStatus(ctx, campaignID)
	if err != nil {
		return err
	}
	if status != repository.CampaignStatusActive {
		w.log.Info("campaign dispatch skipped, campaign not active",
			"campaign_id", campaignID.String(), "status", status)
		return nil
	}

	// Only still-queued leads enter the run; leads contacted or discarded by
	// an earlier run are naturally excluded, which is what makes a re-enqueued
	// campaign resume instead of restart.
	queue, err := w.repo.GetLeadsByCampaign(ctx, campaignID, leads.StatusQueued)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		w.log.Info("campaign dispatch skipped, no queued leads", "campaign_id", campaignID.String())
		return nil
	}

	w.log.Info("campaign dispatch starting", "campaign_id", campaignID.String(), "queue_size", len(queue))
	return w.dispatcher.Run(ctx, campaignID, queue)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
