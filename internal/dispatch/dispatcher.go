package dispatch

import (
	"context"
	"math/rand"
	"sync"

	"outreach_backend/internal/content"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	"outreach_backend/internal/leads"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Dispatcher owns the shared quota guard and the registry of live runners.
// The scheduler worker calls Run; the HTTP control surface reaches the
// runners through Get.
type Dispatcher struct {
	ledger     Ledger
	quota      QuotaCounter
	guard      *QuotaGuard
	suppressed SuppressionGate
	generator  content.Generator
	sender     email.Sender
	delay      *DelayPolicy
	retry      RetryPolicy
	bus        events.Bus
	log        *logger.Logger
	cfg        Config

	mu      sync.Mutex
	runners map[uuid.UUID]*Runner
}

// NewDispatcher wires the dispatch engine. One per process; the guard inside
// it is what makes the daily limit hold across concurrent campaigns.
func NewDispatcher(
	ledger Ledger,
	quota QuotaCounter,
	suppressed SuppressionGate,
	generator content.Generator,
	sender email.Sender,
	bus events.Bus,
	log *logger.Logger,
	dispatchCfg config.DispatchConfig,
	emailCfg config.EmailConfig,
) *Dispatcher {
	return &Dispatcher{
		ledger:     ledger,
		quota:      quota,
		guard:      NewQuotaGuard(),
		suppressed: suppressed,
		generator:  generator,
		sender:     sender,
		delay:      NewDelayPolicy(dispatchCfg, nil),
		retry:      NewRetryPolicy(dispatchCfg.GetSendRetryAttempts(), dispatchCfg.GetSendRetryBackoff()),
		bus:        bus,
		log:        log,
		cfg: Config{
			DailyLimit:      dispatchCfg.GetDailyEmailLimit(),
			MaxAttempts:     dispatchCfg.GetMaxAttemptsPerLead(),
			SendTimeout:     dispatchCfg.GetSendTimeout(),
			UnsubscribeAddr: emailCfg.GetUnsubscribeAddress(),
		},
		runners: make(map[uuid.UUID]*Runner),
	}
}

// Run executes one campaign's queue to completion and blocks until the run
// terminates. Returns the halting error, or nil for clean terminations
// (queue exhausted, quota reached, paused out, cancelled).
func (d *Dispatcher) Run(ctx context.Context, campaignID uuid.UUID, queue []leads.Lead) error {
	runner := NewRunner(
		campaignID, queue,
		d.ledger, d.quota, d.guard, d.suppressed,
		d.generator, d.sender,
		d.retry, d.delay,
		d.bus, d.log, d.cfg,
	)

	d.mu.Lock()
	d.runners[campaignID] = runner
	d.mu.Unlock()

	for range runner.Run(ctx) {
	}
	return runner.Err()
}

// Get returns the runner for a campaign, if one has been started this
// process. Finished runners stay registered so progress remains queryable.
func (d *Dispatcher) Get(campaignID uuid.UUID) (*Runner, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.runners[campaignID]
	return r, ok
}

// WithRand replaces the delay policy's randomness source. Test hook.
func (d *Dispatcher) WithRand(rng *rand.Rand) *Dispatcher {
	d.delay.rng = rng
	return d
}
