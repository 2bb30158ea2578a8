// Package ingest normalizes raw prospect batches into canonical Lead records.
// Source files carry contact fields either nested under a "contacts" object or
// flat on the lead itself; both shapes are accepted here, nested preferred,
// and the ambiguity does not survive past this boundary.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"outreach_backend/internal/leads"
	"outreach_backend/platform/phone"

	"github.com/google/uuid"
)

// RawContacts is the nested contact-channel shape.
type RawContacts struct {
	PrimaryEmail string `json:"primary_email"`
	EmailType    string `json:"email_type"`
	Confidence   string `json:"confidence"`
	Phone        string `json:"phone"`
}

// RawLead is one prospect record as found in source batches. The flat
// contact fields mirror RawContacts for older exports.
type RawLead struct {
	Company           string       `json:"company"`
	Website           string       `json:"website"`
	City              string       `json:"city"`
	DecisionMakerName string       `json:"decision_maker_name"`
	DecisionMakerRole string       `json:"decision_maker_role"`
	Contacts          *RawContacts `json:"contacts,omitempty"`

	// Flat fallback shape.
	PrimaryEmail string `json:"primary_email,omitempty"`
	EmailType    string `json:"email_type,omitempty"`
	Confidence   string `json:"confidence,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Batch is a full prospect file: region metadata plus the lead records.
type Batch struct {
	CampaignName string    `json:"campaign_name"`
	Region       string    `json:"region"`
	Source       string    `json:"source"`
	Leads        []RawLead `json:"leads"`
}

// ParseBatch decodes a raw prospect file.
func ParseBatch(data []byte) (Batch, error) {
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return Batch{}, fmt.Errorf("parse lead batch: %w", err)
	}
	if len(batch.Leads) == 0 {
		return Batch{}, fmt.Errorf("lead batch contains no leads")
	}
	return batch, nil
}

// Normalize converts a raw record into the canonical Lead shape. The lead ID
// is assigned here, not at insert time: duplicates are parked unpersisted in
// the approval queue and must be addressable individually. The original
// record is retained verbatim as the audit payload.
func Normalize(raw RawLead, region string) leads.Lead {
	email, emailType, confidence, rawPhone := contactFields(raw)

	lead := leads.Lead{
		ID:                uuid.New(),
		Company:           strings.TrimSpace(raw.Company),
		Website:           strings.TrimSpace(raw.Website),
		City:              strings.TrimSpace(raw.City),
		Region:            strings.TrimSpace(region),
		DecisionMakerName: strings.TrimSpace(raw.DecisionMakerName),
		DecisionMakerRole: strings.TrimSpace(raw.DecisionMakerRole),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		EmailType:         normalizeEmailType(emailType, email),
		Confidence:        normalizeConfidence(confidence),
		Phone:             phone.NormalizeE164(rawPhone),
		Status:            leads.StatusNew,
	}

	if payload, err := json.Marshal(raw); err == nil {
		lead.RawPayload = payload
	}

	return lead
}

// NormalizeBatch applies Normalize to every record in the batch.
func NormalizeBatch(batch Batch) []leads.Lead {
	normalized := make([]leads.Lead, 0, len(batch.Leads))
	for _, raw := range batch.Leads {
		normalized = append(normalized, Normalize(raw, batch.Region))
	}
	return normalized
}

func contactFields(raw RawLead) (email, emailType, confidence, rawPhone string) {
	if raw.Contacts != nil {
		c := raw.Contacts
		return c.PrimaryEmail, c.EmailType, c.Confidence, c.Phone
	}
	return raw.PrimaryEmail, raw.EmailType, raw.Confidence, raw.Phone
}

func normalizeEmailType(value, email string) leads.EmailType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "nominal":
		return leads.EmailTypeNominal
	case "role", "role_based":
		return leads.EmailTypeRole
	case "generic":
		return leads.EmailTypeGeneric
	case "form_only", "form":
		return leads.EmailTypeFormOnly
	}
	if strings.TrimSpace(email) == "" {
		return leads.EmailTypeFormOnly
	}
	return leads.EmailTypeGeneric
}

func normalizeConfidence(value string) leads.Confidence {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high", "alta":
		return leads.ConfidenceHigh
	case "medium", "media", "média":
		return leads.ConfidenceMedium
	default:
		return leads.ConfidenceLow
	}
}
