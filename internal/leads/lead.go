// Package leads defines the canonical Lead model shared by the scoring,
// dedup, and dispatch components. Raw prospect records are normalized into
// this shape once, at the ingestion boundary; nothing downstream deals with
// the nested-or-flat dual shape of the source data.
package leads

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lead lifecycle state. Transitions are driven only by the
// dispatch scheduler and manual operator actions; leads are never deleted,
// only status-retired.
type Status string

const (
	StatusNew       Status = "new"
	StatusQueued    Status = "queued"
	StatusContacted Status = "contacted"
	StatusResponded Status = "responded"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
	StatusInvalid   Status = "invalid"
)

// EmailType buckets the quality of the contact channel.
type EmailType string

const (
	EmailTypeNominal  EmailType = "nominal"
	EmailTypeRole     EmailType = "role"
	EmailTypeGeneric  EmailType = "generic"
	EmailTypeFormOnly EmailType = "form_only"
)

// Confidence tags how reliable the source enrichment is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Lead is the canonical prospect record.
type Lead struct {
	ID                uuid.UUID       `json:"id"`
	CampaignID        uuid.UUID       `json:"campaignId"`
	Company           string          `json:"company"`
	Website           string          `json:"website"`
	City              string          `json:"city"`
	Region            string          `json:"region"`
	DecisionMakerName string          `json:"decisionMakerName"`
	DecisionMakerRole string          `json:"decisionMakerRole"`
	Email             string          `json:"email"`
	EmailType         EmailType       `json:"emailType"`
	Confidence        Confidence      `json:"confidence"`
	Phone             string          `json:"phone"`
	Score             int             `json:"score"`
	Status            Status          `json:"status"`
	StatusReason      string          `json:"statusReason,omitempty"`
	RawPayload        json.RawMessage `json:"-"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// HasEmail reports whether the lead carries a non-empty contact address.
// Leads without one can never be duplicates and never be dispatched.
func (l Lead) HasEmail() bool {
	return l.Email != ""
}
