package events

import (
	"context"

	"outreach_backend/platform/logger"
)

// RegisterAuditLog subscribes a logging handler to every domain event so each
// process keeps a structured trail of what the engine did.
func RegisterAuditLog(bus Bus, log *logger.Logger) {
	names := []string{
		CampaignStarted{}.EventName(),
		CampaignFinished{}.EventName(),
		EmailSent{}.EventName(),
		EmailFailed{}.EventName(),
		LeadSuppressed{}.EventName(),
		DuplicateApproved{}.EventName(),
	}

	handler := HandlerFunc(func(_ context.Context, event Event) error {
		switch e := event.(type) {
		case CampaignStarted:
			log.Info("audit: campaign started",
				"campaign_id", e.CampaignID.String(), "queue_size", e.QueueSize, "daily_limit", e.DailyLimit)
		case CampaignFinished:
			log.Info("audit: campaign finished",
				"campaign_id", e.CampaignID.String(), "sent", e.Sent, "failed", e.Failed,
				"discarded", e.Discarded, "reason", e.Reason)
		case EmailSent:
			log.Info("audit: email sent",
				"campaign_id", e.CampaignID.String(), "lead_id", e.LeadID.String(),
				"email", e.Email, "provider_message_id", e.ProviderMessageID)
		case EmailFailed:
			log.Warn("audit: email failed",
				"campaign_id", e.CampaignID.String(), "lead_id", e.LeadID.String(),
				"email", e.Email, "error", e.Error)
		case LeadSuppressed:
			log.Info("audit: lead suppressed", "email", e.Email, "reason", e.Reason)
		case DuplicateApproved:
			log.Info("audit: duplicate approved",
				"campaign_id", e.CampaignID.String(), "lead_id", e.LeadID.String(), "email", e.Email)
		default:
			log.Info("audit: event", "event", event.EventName())
		}
		return nil
	})

	for _, name := range names {
		bus.Subscribe(name, handler)
	}
}
