// Package events defines the domain events published by the engine and
// re-exports the platform bus types so modules depend on a single import.
package events

import (
	"outreach_backend/platform/events"

	"github.com/google/uuid"
)

// Re-exported platform types.
type (
	Event       = events.Event
	BaseEvent   = events.BaseEvent
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// CampaignStarted is published when a dispatch run begins.
type CampaignStarted struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	QueueSize  int       `json:"queueSize"`
	DailyLimit int       `json:"dailyLimit"`
}

func (CampaignStarted) EventName() string { return "campaign.started" }

// CampaignFinished is published when a dispatch run terminates, whatever the
// reason (queue exhausted, quota reached, operator cancel, halt).
type CampaignFinished struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Discarded  int       `json:"discarded"`
	Reason     string    `json:"reason"`
}

func (CampaignFinished) EventName() string { return "campaign.finished" }

// EmailSent is published after a provider accepts a message.
type EmailSent struct {
	BaseEvent
	CampaignID        uuid.UUID `json:"campaignId"`
	LeadID            uuid.UUID `json:"leadId"`
	Email             string    `json:"email"`
	ProviderMessageID string    `json:"providerMessageId"`
}

func (EmailSent) EventName() string { return "email.sent" }

// EmailFailed is published after the retry budget for a send is exhausted.
type EmailFailed struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	LeadID     uuid.UUID `json:"leadId"`
	Email      string    `json:"email"`
	Error      string    `json:"error"`
}

func (EmailFailed) EventName() string { return "email.failed" }

// LeadSuppressed is published when an address is added to the suppression list.
type LeadSuppressed struct {
	BaseEvent
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

func (LeadSuppressed) EventName() string { return "lead.suppressed" }

// DuplicateApproved is published when an operator re-injects a duplicate lead.
type DuplicateApproved struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	LeadID     uuid.UUID `json:"leadId"`
	Email      string    `json:"email"`
}

func (DuplicateApproved) EventName() string { return "duplicate.approved" }
