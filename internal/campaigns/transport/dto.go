package transport

import "time"

type DuplicateResponse struct {
	LeadID               string    `json:"leadId"`
	Company              string    `json:"company"`
	Email                string    `json:"email"`
	CampaignID           string    `json:"campaignId"`
	LastSentAt           time.Time `json:"lastSentAt"`
	PreviousCampaignID   string    `json:"previousCampaignId"`
	PreviousCampaignName string    `json:"previousCampaignName"`
}

type ApproveAllResponse struct {
	Approved int `json:"approved"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
