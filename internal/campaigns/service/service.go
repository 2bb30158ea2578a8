// Package service orchestrates campaign ingestion: parse, qualify, dedup,
// persist, then hand the queue to the dispatch scheduler.
package service

import (
	"context"
	"time"

	"outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/events"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/leads/dedup"
	"outreach_backend/internal/leads/ingest"
	"outreach_backend/internal/leads/scoring"
	"outreach_backend/internal/scheduler"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// IngestSummary reports how a batch fanned out across the pipeline stages.
type IngestSummary struct {
	CampaignID   uuid.UUID `json:"campaignId"`
	CampaignName string    `json:"campaignName"`
	Total        int       `json:"total"`
	Queued       int       `json:"queued"`
	Disqualified int       `json:"disqualified"`
	Duplicates   int       `json:"duplicates"`
}

// CampaignProgress is the DB-backed view of a running campaign, usable from
// any process.
type CampaignProgress struct {
	Campaign       repository.Campaign `json:"campaign"`
	QueuedLeads    int                 `json:"queuedLeads"`
	RemainingToday int                 `json:"remainingToday"`
	// EstimatedRemaining is the rough wall-clock time to drain today's share
	// of the queue at the configured pacing, e.g. "42m0s".
	EstimatedRemaining string `json:"estimatedRemaining"`
}

type Config interface {
	config.DedupConfig
	config.ScoringConfig
	config.DispatchConfig
}

type Service struct {
	repo      *repository.Repository
	scorer    *scoring.Scorer
	detector  *dedup.Detector
	approvals *dedup.ApprovalQueue
	enqueuer  scheduler.DispatchEnqueuer
	bus       events.Bus
	log       *logger.Logger
	cfg       Config
}

func New(
	repo *repository.Repository,
	scorer *scoring.Scorer,
	detector *dedup.Detector,
	approvals *dedup.ApprovalQueue,
	enqueuer scheduler.DispatchEnqueuer,
	bus events.Bus,
	log *logger.Logger,
	cfg Config,
) *Service {
	return &Service{
		repo:      repo,
		scorer:    scorer,
		detector:  detector,
		approvals: approvals,
		enqueuer:  enqueuer,
		bus:       bus,
		log:       log,
		cfg:       cfg,
	}
}

// IngestBatch runs the full qualification pipeline over one raw batch.
// Disqualified leads are persisted as invalid for auditing; duplicates are
// parked in the approval queue and only persisted once an operator approves
// them.
func (s *Service) IngestBatch(ctx context.Context, payload []byte) (IngestSummary, error) {
	batch, err := ingest.ParseBatch(payload)
	if err != nil {
		return IngestSummary{}, apperr.Wrap(apperr.KindValidation, "invalid batch payload", err)
	}

	normalized := ingest.NormalizeBatch(batch)

	campaign, err := s.repo.CreateCampaign(ctx, batch.CampaignName, batch.Region, len(normalized))
	if err != nil {
		return IngestSummary{}, err
	}

	var qualified []leads.Lead
	var disqualified []leads.Lead
	for _, lead := range normalized {
		lead.CampaignID = campaign.ID

		result := s.scorer.Score(ctx, lead)
		if !result.Disqualified && s.cfg.GetMXCheckEnabled() {
			if deliverable, checked := s.scorer.VerifyDomain(ctx, lead.Email); checked && !deliverable {
				result = scoring.Disqualify(result.Value, scoring.ReasonUndeliverableDomain)
			}
		}

		lead.Score = result.Value
		if result.Disqualified {
			lead.Status = leads.StatusInvalid
			lead.StatusReason = result.Reason
			disqualified = append(disqualified, lead)
			continue
		}
		qualified = append(qualified, lead)
	}

	fresh, duplicates, err := s.detector.Partition(ctx, qualified, s.cfg.GetDedupWindow())
	if err != nil {
		return IngestSummary{}, err
	}

	for _, lead := range disqualified {
		if _, err := s.repo.InsertLead(ctx, lead); err != nil {
			return IngestSummary{}, err
		}
	}
	for _, lead := range fresh {
		lead.Status = leads.StatusQueued
		if _, err := s.repo.InsertLead(ctx, lead); err != nil {
			return IngestSummary{}, err
		}
	}
	s.approvals.Add(duplicates)

	summary := IngestSummary{
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		Total:        len(normalized),
		Queued:       len(fresh),
		Disqualified: len(disqualified),
		Duplicates:   len(duplicates),
	}

	s.log.Info("batch ingested",
		"campaign_id", campaign.ID.String(),
		"total", summary.Total,
		"queued", summary.Queued,
		"disqualified", summary.Disqualified,
		"duplicates", summary.Duplicates,
	)

	if len(fresh) > 0 {
		if err := s.enqueuer.EnqueueCampaignDispatch(ctx, campaign.ID.String()); err != nil {
			return IngestSummary{}, apperr.Wrap(apperr.KindUnavailable, "enqueue dispatch", err)
		}
	}

	return summary, nil
}

// PendingDuplicates lists the held duplicates awaiting operator review.
func (s *Service) PendingDuplicates() []dedup.Duplicate {
	return s.approvals.Pending()
}

// ApproveDuplicate re-injects one held duplicate into its campaign's queue.
func (s *Service) ApproveDuplicate(ctx context.Context, leadID uuid.UUID) error {
	lead, ok := s.approvals.Approve(leadID)
	if !ok {
		return apperr.NotFound("duplicate not found in approval queue")
	}
	return s.injectApproved(ctx, lead)
}

// ApproveAllDuplicates re-injects every held duplicate and returns how many.
func (s *Service) ApproveAllDuplicates(ctx context.Context) (int, error) {
	approved := s.approvals.ApproveAll()
	for _, lead := range approved {
		if err := s.injectApproved(ctx, lead); err != nil {
			return 0, err
		}
	}
	return len(approved), nil
}

func (s *Service) injectApproved(ctx context.Context, lead leads.Lead) error {
	lead.Status = leads.StatusQueued
	lead.StatusReason = ""
	if _, err := s.repo.InsertLead(ctx, lead); err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.DuplicateApproved{
			BaseEvent:  events.NewBaseEvent(),
			CampaignID: lead.CampaignID,
			LeadID:     lead.ID,
			Email:      lead.Email,
		})
	}

	if err := s.enqueuer.EnqueueCampaignDispatch(ctx, lead.CampaignID.String()); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "enqueue dispatch", err)
	}
	return nil
}

func (s *Service) ListCampaigns(ctx context.Context) ([]repository.Campaign, error) {
	return s.repo.ListCampaigns(ctx)
}

func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (repository.Campaign, error) {
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err == repository.ErrNotFound {
		return repository.Campaign{}, apperr.NotFound("campaign not found")
	}
	return campaign, err
}

func (s *Service) ListAttempts(ctx context.Context, campaignID uuid.UUID, status string) ([]repository.SendAttempt, error) {
	return s.repo.ListSendAttempts(ctx, campaignID, status)
}

// Progress builds the campaign's live view from the ledger so it works even
// when the dispatch run executes in another process.
func (s *Service) Progress(ctx context.Context, id uuid.UUID) (CampaignProgress, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return CampaignProgress{}, err
	}

	queued, err := s.repo.GetLeadsByCampaign(ctx, id, leads.StatusQueued)
	if err != nil {
		return CampaignProgress{}, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sentToday, err := s.repo.GetSentCountSince(ctx, midnight)
	if err != nil {
		return CampaignProgress{}, err
	}

	progress := CampaignProgress{
		Campaign:    campaign,
		QueuedLeads: len(queued),
	}
	if remaining := s.cfg.GetDailyEmailLimit() - sentToday; remaining > 0 {
		progress.RemainingToday = remaining
	}

	sends := progress.QueuedLeads
	if progress.RemainingToday < sends {
		sends = progress.RemainingToday
	}
	progress.EstimatedRemaining = s.estimateRuntime(sends).String()
	return progress, nil
}

// estimateRuntime projects how long n paced sends take: the mean inter-send
// delay plus the batch pause amortized over its interval.
func (s *Service) estimateRuntime(sends int) time.Duration {
	if sends <= 0 || s.cfg.GetDelaysDisabled() {
		return 0
	}

	perSend := s.cfg.GetDelayMean()
	if every := s.cfg.GetBatchPauseEvery(); every > 0 {
		avgPause := (s.cfg.GetBatchPauseMin() + s.cfg.GetBatchPauseMax()) / 2
		perSend += avgPause / time.Duration(every)
	}
	return (time.Duration(sends) * perSend).Truncate(time.Second)
}

// Pause marks the campaign paused; the runner picks the change up at its next
// inter-lead checkpoint.
func (s *Service) Pause(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, repository.CampaignStatusActive, repository.CampaignStatusPaused)
}

// Resume reactivates a paused campaign and enqueues a fresh dispatch run over
// its still-queued leads.
func (s *Service) Resume(ctx context.Context, id uuid.UUID) error {
	if err := s.transition(ctx, id, repository.CampaignStatusPaused, repository.CampaignStatusActive); err != nil {
		return err
	}
	if err := s.enqueuer.EnqueueCampaignDispatch(ctx, id.String()); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "enqueue dispatch", err)
	}
	return nil
}

// Cancel finishes the campaign. Queued leads keep their status for auditing;
// they simply never dispatch.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if campaign.Status == repository.CampaignStatusFinished {
		return apperr.Conflict("campaign already finished")
	}
	return s.repo.UpdateCampaignStatus(ctx, id, repository.CampaignStatusFinished)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to string) error {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if campaign.Status != from {
		return apperr.Conflict("campaign is " + campaign.Status)
	}
	return s.repo.UpdateCampaignStatus(ctx, id, to)
}
