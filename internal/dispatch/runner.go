package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"outreach_backend/internal/content"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	"outreach_backend/internal/leads"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Ledger is the narrow persistence surface the runner writes through.
// A Ledger failure halts the run: continuing without durable attempt records
// risks double-sends on resume.
type Ledger interface {
	GetCampaignStatus(ctx context.Context, id uuid.UUID) (string, error)
	UpdateCampaignStats(ctx context.Context, id uuid.UUID, sentDelta, failedDelta int) error
	UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status leads.Status, reason string) error
	LogSendAttempt(ctx context.Context, campaignID, leadID uuid.UUID, email string, attemptNumber int) (uuid.UUID, error)
	UpdateSendAttemptStatus(ctx context.Context, attemptID uuid.UUID, status string, providerMessageID, errorText *string) error
	CountLeadAttempts(ctx context.Context, leadID uuid.UUID) (int, error)
}

// SuppressionGate is the send-time suppression re-check. Suppression state
// can change between batch scoring and the actual send.
type SuppressionGate interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}

// Outcome reports what happened to one queued lead.
type Outcome struct {
	LeadID uuid.UUID `json:"leadId"`
	Email  string    `json:"email"`
	Status string    `json:"status"`
	Reason string    `json:"reason,omitempty"`
}

// Outcome status values. The operator surface must always be able to tell a
// pre-send discard from an attempted-and-failed send from a still-queued lead.
const (
	OutcomeSent      = "sent"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeDiscarded = "discarded"
)

// Ledger attempt/campaign status values, mirrored from the repository so the
// runner does not import it.
const (
	attemptSent      = "sent"
	attemptFailed    = "failed"
	campaignPaused   = "paused"
	campaignFinished = "finished"
)

// Progress is the polling surface for the dashboard.
type Progress struct {
	Queued         int `json:"queued"`
	Sent           int `json:"sent"`
	Failed         int `json:"failed"`
	Discarded      int `json:"discarded"`
	RemainingToday int `json:"remainingToday"`
}

// Config carries the per-runner tuning.
type Config struct {
	DailyLimit      int
	MaxAttempts     int
	SendTimeout     time.Duration
	UnsubscribeAddr string
}

// Runner executes one campaign's queue. Sends within a campaign are strictly
// sequential to preserve the pacing heuristic; multiple runners may exist at
// once, sharing the global quota through the guard.
type Runner struct {
	campaignID uuid.UUID
	queue      []leads.Lead

	ledger     Ledger
	quota      QuotaCounter
	guard      *QuotaGuard
	suppressed SuppressionGate
	generator  content.Generator
	sender     email.Sender
	retry      RetryPolicy
	delay      *DelayPolicy
	bus        events.Bus
	log        *logger.Logger
	cfg        Config

	mu         sync.Mutex
	dailyLimit int
	paused     bool
	resume     chan struct{}
	cancelled  bool
	nextIndex  int
	sent       int
	failed     int
	discarded  int
	finished   bool
	runErr     error
}

// NewRunner builds a runner over an already-ordered queue (score-descending,
// computed once at queue-build time and never reshuffled mid-run).
func NewRunner(
	campaignID uuid.UUID,
	queue []leads.Lead,
	ledger Ledger,
	quota QuotaCounter,
	guard *QuotaGuard,
	suppressed SuppressionGate,
	generator content.Generator,
	sender email.Sender,
	retry RetryPolicy,
	delay *DelayPolicy,
	bus events.Bus,
	log *logger.Logger,
	cfg Config,
) *Runner {
	return &Runner{
		campaignID: campaignID,
		queue:      queue,
		ledger:     ledger,
		quota:      quota,
		guard:      guard,
		suppressed: suppressed,
		generator:  generator,
		sender:     sender,
		retry:      retry,
		delay:      delay,
		bus:        bus,
		log:        log,
		cfg:        cfg,
		dailyLimit: cfg.DailyLimit,
	}
}

// Run starts the dispatch loop and returns the outcome stream. The channel
// closes when the run terminates; Err reports whether it halted.
func (r *Runner) Run(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, len(r.queue))

	if r.bus != nil {
		r.bus.Publish(ctx, events.CampaignStarted{
			BaseEvent:  events.NewBaseEvent(),
			CampaignID: r.campaignID,
			QueueSize:  len(r.queue),
			DailyLimit: r.dailyLimit,
		})
	}

	go func() {
		defer close(out)
		r.loop(ctx, out)
	}()

	return out
}

// Err returns the terminal error after the outcome stream closes. Quota
// exhaustion, operator pause, and cancellation are clean terminations, not
// errors.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runErr
}

// Pause requests a stop at the next inter-lead checkpoint. An in-flight
// provider call is never interrupted.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.paused {
		r.paused = true
		r.resume = make(chan struct{})
	}
}

// Resume lifts a pause.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused {
		r.paused = false
		close(r.resume)
	}
}

// Cancel terminates the run at the next checkpoint.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = true
	if r.paused {
		r.paused = false
		close(r.resume)
	}
}

// SetDailyLimit adjusts the quota mid-run.
func (r *Runner) SetDailyLimit(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > 0 {
		r.dailyLimit = n
	}
}

// Progress reports the runner's counters plus the remaining global quota.
func (r *Runner) Progress(ctx context.Context) (Progress, error) {
	r.mu.Lock()
	queued := len(r.queue) - r.nextIndex
	limit := r.dailyLimit
	p := Progress{
		Queued:    queued,
		Sent:      r.sent,
		Failed:    r.failed,
		Discarded: r.discarded,
	}
	r.mu.Unlock()

	count, err := r.quota.CountSentToday(ctx)
	if err != nil {
		return Progress{}, err
	}
	if remaining := limit - count; remaining > 0 {
		p.RemainingToday = remaining
	}
	return p, nil
}

func (r *Runner) loop(ctx context.Context, out chan<- Outcome) {
	for {
		if stop := r.checkpoint(ctx); stop != "" {
			r.finish(ctx, stop)
			return
		}

		// Operator controls from the API process land in the campaign row, so
		// the stored status is consulted between leads as well.
		switch status, err := r.ledger.GetCampaignStatus(ctx, r.campaignID); {
		case err != nil:
			r.halt(ctx, fmt.Errorf("read campaign status: %w", err))
			return
		case status == campaignPaused:
			r.finish(ctx, "paused")
			return
		case status == campaignFinished:
			r.finish(ctx, "cancelled")
			return
		}

		r.mu.Lock()
		if r.nextIndex >= len(r.queue) {
			r.mu.Unlock()
			r.finishExhausted(ctx)
			return
		}
		lead := r.queue[r.nextIndex]
		limit := r.dailyLimit
		sentSoFar := r.sent
		r.mu.Unlock()

		// Quota gate. Exhaustion is a normal termination: remaining leads
		// stay queued for the next run.
		reserved, err := r.guard.Reserve(ctx, r.quota, limit)
		if err != nil {
			r.halt(ctx, fmt.Errorf("quota reload: %w", err))
			return
		}
		if !reserved {
			r.finish(ctx, "daily limit reached")
			return
		}

		outcome, sent, haltErr := r.processLead(ctx, lead)
		if haltErr != nil {
			r.halt(ctx, haltErr)
			return
		}

		r.advance(outcome)
		out <- outcome

		if outcome.Status == OutcomeSent || outcome.Status == OutcomeFailed {
			if !r.sleep(ctx, r.delay.Next(sentSoFar+boolToInt(sent))) {
				// Cancellation during the delay; the attempt is already
				// recorded, so the next checkpoint exits cleanly.
				continue
			}
		}
	}
}

// processLead runs gates 2-6 for one lead while holding a quota reservation.
// It returns the lead's outcome, whether a send succeeded, and a halting
// persistence error if any.
func (r *Runner) processLead(ctx context.Context, lead leads.Lead) (Outcome, bool, error) {
	release := func(sent bool) { r.guard.Release(r.quota, sent) }

	// Attempt-ceiling gate. Skips do not count against quota.
	attempts, err := r.ledger.CountLeadAttempts(ctx, lead.ID)
	if err != nil {
		release(false)
		return Outcome{}, false, fmt.Errorf("count attempts for lead %s: %w", lead.ID, err)
	}
	if attempts >= r.cfg.MaxAttempts {
		release(false)
		return Outcome{LeadID: lead.ID, Email: lead.Email, Status: OutcomeSkipped, Reason: "attempt limit reached"}, false, nil
	}

	// Suppression gate, re-checked at send time.
	suppressedHit, err := r.suppressed.IsSuppressed(ctx, lead.Email)
	if err != nil {
		release(false)
		return Outcome{}, false, fmt.Errorf("suppression check for %s: %w", lead.Email, err)
	}
	if suppressedHit {
		release(false)
		if err := r.ledger.UpdateLeadStatus(ctx, lead.ID, leads.StatusInvalid, "suppressed"); err != nil {
			return Outcome{}, false, fmt.Errorf("mark lead suppressed: %w", err)
		}
		return Outcome{LeadID: lead.ID, Email: lead.Email, Status: OutcomeDiscarded, Reason: "suppressed"}, false, nil
	}

	// Content generation degrades to the fallback template inside the
	// generator chain; an error here means even the fallback failed. It is
	// still recorded as a failed attempt so the ledger views can tell it
	// apart from a lead that never came up, and so it counts toward the
	// attempt ceiling.
	subject, body, err := r.generator.Generate(ctx, lead)
	if err != nil {
		release(false)
		errText := "content generation: " + err.Error()

		attemptID, lerr := r.ledger.LogSendAttempt(ctx, r.campaignID, lead.ID, lead.Email, attempts+1)
		if lerr != nil {
			return Outcome{}, false, fmt.Errorf("log send attempt: %w", lerr)
		}
		if uerr := r.ledger.UpdateSendAttemptStatus(ctx, attemptID, attemptFailed, nil, &errText); uerr != nil {
			return Outcome{}, false, fmt.Errorf("record failed attempt: %w", uerr)
		}
		if serr := r.ledger.UpdateCampaignStats(ctx, r.campaignID, 0, 1); serr != nil {
			return Outcome{}, false, fmt.Errorf("update campaign stats: %w", serr)
		}
		r.log.SendFailure(r.campaignID.String(), lead.Email, attempts+1, err)
		return Outcome{LeadID: lead.ID, Email: lead.Email, Status: OutcomeFailed, Reason: errText}, false, nil
	}

	// Record the attempt as pending before touching the provider.
	attemptID, err := r.ledger.LogSendAttempt(ctx, r.campaignID, lead.ID, lead.Email, attempts+1)
	if err != nil {
		release(false)
		return Outcome{}, false, fmt.Errorf("log send attempt: %w", err)
	}

	msg := email.Message{
		To:       lead.Email,
		Subject:  subject,
		HTMLBody: body,
		Headers:  r.headers(lead),
	}

	var providerID string
	sendErr := r.retry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, r.cfg.SendTimeout)
		defer cancel()

		id, err := r.sender.Send(callCtx, msg)
		if err != nil {
			return err
		}
		providerID = id
		return nil
	})

	if sendErr != nil {
		release(false)
		errText := sendErr.Error()
		if err := r.ledger.UpdateSendAttemptStatus(ctx, attemptID, attemptFailed, nil, &errText); err != nil {
			return Outcome{}, false, fmt.Errorf("record failed attempt: %w", err)
		}
		if err := r.ledger.UpdateCampaignStats(ctx, r.campaignID, 0, 1); err != nil {
			return Outcome{}, false, fmt.Errorf("update campaign stats: %w", err)
		}

		r.log.SendFailure(r.campaignID.String(), lead.Email, attempts+1, sendErr)
		if r.bus != nil {
			r.bus.Publish(ctx, events.EmailFailed{
				BaseEvent:  events.NewBaseEvent(),
				CampaignID: r.campaignID,
				LeadID:     lead.ID,
				Email:      lead.Email,
				Error:      errText,
			})
		}
		return Outcome{LeadID: lead.ID, Email: lead.Email, Status: OutcomeFailed, Reason: errText}, false, nil
	}

	// The message went out; bump the quota before anything else so a
	// persistence halt cannot lose the count.
	release(true)

	if err := r.ledger.UpdateSendAttemptStatus(ctx, attemptID, attemptSent, &providerID, nil); err != nil {
		return Outcome{}, true, fmt.Errorf("record sent attempt: %w", err)
	}
	if err := r.ledger.UpdateCampaignStats(ctx, r.campaignID, 1, 0); err != nil {
		return Outcome{}, true, fmt.Errorf("update campaign stats: %w", err)
	}
	if err := r.ledger.UpdateLeadStatus(ctx, lead.ID, leads.StatusContacted, ""); err != nil {
		return Outcome{}, true, fmt.Errorf("mark lead contacted: %w", err)
	}

	if r.bus != nil {
		r.bus.Publish(ctx, events.EmailSent{
			BaseEvent:         events.NewBaseEvent(),
			CampaignID:        r.campaignID,
			LeadID:            lead.ID,
			Email:             lead.Email,
			ProviderMessageID: providerID,
		})
	}
	return Outcome{LeadID: lead.ID, Email: lead.Email, Status: OutcomeSent}, true, nil
}

// checkpoint blocks while paused and reports the stop reason, if any.
// Pauses and cancels only take effect here, between leads.
func (r *Runner) checkpoint(ctx context.Context) string {
	for {
		if ctx.Err() != nil {
			return "cancelled"
		}

		r.mu.Lock()
		if r.cancelled {
			r.mu.Unlock()
			return "cancelled"
		}
		if !r.paused {
			r.mu.Unlock()
			return ""
		}
		resume := r.resume
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return "cancelled"
		case <-resume:
		}
	}
}

func (r *Runner) advance(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextIndex++
	switch outcome.Status {
	case OutcomeSent:
		r.sent++
	case OutcomeFailed:
		r.failed++
	case OutcomeDiscarded, OutcomeSkipped:
		r.discarded++
	}
}

// sleep waits out the inter-send delay; returns false on cancellation.
func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (r *Runner) headers(lead leads.Lead) map[string]string {
	headers := map[string]string{
		"X-Entity-Ref-ID": lead.ID.String(),
	}
	if r.cfg.UnsubscribeAddr != "" {
		headers["List-Unsubscribe"] = fmt.Sprintf("<mailto:%s>", r.cfg.UnsubscribeAddr)
	}
	return headers
}

func (r *Runner) finishExhausted(ctx context.Context) {
	if err := r.ledger.UpdateCampaignStatus(ctx, r.campaignID, campaignFinished); err != nil {
		r.log.DatabaseError("finish campaign", err)
	}
	r.finish(ctx, "queue exhausted")
}

func (r *Runner) finish(ctx context.Context, reason string) {
	r.mu.Lock()
	r.finished = true
	sent, failed, discarded := r.sent, r.failed, r.discarded
	r.mu.Unlock()

	r.log.DispatchEvent(r.campaignID.String(), "", "run_finished", reason)
	if r.bus != nil {
		r.bus.Publish(ctx, events.CampaignFinished{
			BaseEvent:  events.NewBaseEvent(),
			CampaignID: r.campaignID,
			Sent:       sent,
			Failed:     failed,
			Discarded:  discarded,
			Reason:     reason,
		})
	}
}

func (r *Runner) halt(ctx context.Context, err error) {
	r.mu.Lock()
	r.runErr = err
	r.mu.Unlock()

	r.log.Error("dispatch run halted", "campaign_id", r.campaignID.String(), "error", err)
	r.finish(ctx, "halted: "+err.Error())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
