// Package dedup partitions candidate leads into fresh and recently-contacted
// sets using a single bulk query over the send history.
package dedup

import (
	"context"
	"strings"
	"time"

	"outreach_backend/internal/leads"

	"github.com/google/uuid"
)

// RecentSend is the most recent successful send to one address inside the
// lookback window, as returned by the bulk history query.
type RecentSend struct {
	Email        string
	LastSentAt   time.Time
	CampaignID   uuid.UUID
	CampaignName string
	LeadID       uuid.UUID
}

// HistoryReader is the single bulk query the detector needs. Implementations
// must group by lowercased recipient, filter to status=sent inside the
// window, and keep only the most recent attempt per address.
type HistoryReader interface {
	GetRecentSendsBulk(ctx context.Context, window time.Duration) (map[string]RecentSend, error)
}

// Duplicate annotates a candidate lead with the prior contact. The annotation
// fields are copied values, so they remain valid even if the original lead
// row is later removed.
type Duplicate struct {
	Lead            leads.Lead `json:"lead"`
	LastSentAt      time.Time  `json:"lastSentAt"`
	CampaignID      uuid.UUID  `json:"campaignId"`
	CampaignName    string     `json:"campaignName"`
	ContactedLeadID uuid.UUID  `json:"contactedLeadId"`
}

// Detector implements the partition.
type Detector struct {
	history HistoryReader
}

// New creates a Detector over the given history reader.
func New(history HistoryReader) *Detector {
	return &Detector{history: history}
}

// Partition splits the batch into fresh leads and duplicates. Leads without
// an email cannot match history and always come back fresh. Input order is
// preserved in both partitions.
func (d *Detector) Partition(ctx context.Context, batch []leads.Lead, window time.Duration) ([]leads.Lead, []Duplicate, error) {
	recent, err := d.history.GetRecentSendsBulk(ctx, window)
	if err != nil {
		return nil, nil, err
	}

	fresh := make([]leads.Lead, 0, len(batch))
	var duplicates []Duplicate

	for _, lead := range batch {
		if !lead.HasEmail() {
			fresh = append(fresh, lead)
			continue
		}

		prior, ok := recent[strings.ToLower(lead.Email)]
		if !ok {
			fresh = append(fresh, lead)
			continue
		}

		duplicates = append(duplicates, Duplicate{
			Lead:            lead,
			LastSentAt:      prior.LastSentAt,
			CampaignID:      prior.CampaignID,
			CampaignName:    prior.CampaignName,
			ContactedLeadID: prior.LeadID,
		})
	}

	return fresh, duplicates, nil
}
