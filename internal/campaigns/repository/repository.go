// Package repository persists campaigns, leads, and send attempts.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outreach_backend/internal/leads"
	"outreach_backend/internal/leads/dedup"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Campaign groups leads and send attempts for one prospecting run.
type Campaign struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Region       string    `json:"region"`
	Status       string    `json:"status"`
	TotalLeads   int       `json:"totalLeads"`
	EmailsSent   int       `json:"emailsSent"`
	EmailsFailed int       `json:"emailsFailed"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Campaign status values.
const (
	CampaignStatusActive   = "active"
	CampaignStatusPaused   = "paused"
	CampaignStatusFinished = "finished"
)

// SendAttempt is one dispatch try. Rows are immutable once sent or failed.
type SendAttempt struct {
	ID                uuid.UUID  `json:"id"`
	CampaignID        uuid.UUID  `json:"campaignId"`
	LeadID            uuid.UUID  `json:"leadId"`
	Email             string     `json:"email"`
	AttemptNumber     int        `json:"attemptNumber"`
	Status            string     `json:"status"`
	ProviderMessageID *string    `json:"providerMessageId,omitempty"`
	ErrorText         *string    `json:"errorText,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

// Send attempt status values.
const (
	AttemptStatusPending = "pending"
	AttemptStatusSent    = "sent"
	AttemptStatusFailed  = "failed"
)

// Repository is the campaign ledger backed by Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a campaign repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateCampaign inserts a new campaign and returns it.
func (r *Repository) CreateCampaign(ctx context.Context, name, region string, totalLeads int) (Campaign, error) {
	campaign := Campaign{
		ID:         uuid.New(),
		Name:       name,
		Region:     region,
		Status:     CampaignStatusActive,
		TotalLeads: totalLeads,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (id, name, region, status, total_leads, emails_sent, emails_failed, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, NOW())
		RETURNING created_at`,
		campaign.ID, campaign.Name, campaign.Region, campaign.Status, campaign.TotalLeads,
	).Scan(&campaign.CreatedAt)
	if err != nil {
		return Campaign{}, fmt.Errorf("create campaign: %w", err)
	}

	return campaign, nil
}

// GetCampaign loads one campaign.
func (r *Repository) GetCampaign(ctx context.Context, id uuid.UUID) (Campaign, error) {
	var c Campaign
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, region, status, total_leads, emails_sent, emails_failed, created_at
		FROM campaigns WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Region, &c.Status, &c.TotalLeads, &c.EmailsSent, &c.EmailsFailed, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns all campaigns, newest first.
func (r *Repository) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, region, status, total_leads, emails_sent, emails_failed, created_at
		FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Region, &c.Status, &c.TotalLeads, &c.EmailsSent, &c.EmailsFailed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateCampaignStats bumps the cumulative counters. Stats are an append-only
// tally, never recomputed mid-run.
func (r *Repository) UpdateCampaignStats(ctx context.Context, id uuid.UUID, sentDelta, failedDelta int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET emails_sent = emails_sent + $2, emails_failed = emails_failed + $3
		WHERE id = $1`, id, sentDelta, failedDelta)
	if err != nil {
		return fmt.Errorf("update campaign stats: %w", err)
	}
	return nil
}

// GetCampaignStatus reads just the lifecycle state. The dispatch runner polls
// this between leads so operator pause and cancel reach a run in another
// process.
func (r *Repository) GetCampaignStatus(ctx context.Context, id uuid.UUID) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM campaigns WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get campaign status: %w", err)
	}
	return status, nil
}

// UpdateCampaignStatus sets the campaign lifecycle state.
func (r *Repository) UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertLead stores a normalized lead under its campaign.
func (r *Repository) InsertLead(ctx context.Context, lead leads.Lead) (uuid.UUID, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (
			id, campaign_id, company, website, city, region,
			decision_maker_name, decision_maker_role,
			email, email_type, confidence, phone,
			score, status, status_reason, raw_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())`,
		lead.ID, lead.CampaignID, lead.Company, lead.Website, lead.City, lead.Region,
		lead.DecisionMakerName, lead.DecisionMakerRole,
		lead.Email, lead.EmailType, lead.Confidence, lead.Phone,
		lead.Score, lead.Status, lead.StatusReason, lead.RawPayload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert lead: %w", err)
	}
	return lead.ID, nil
}

// UpdateLeadStatus transitions a lead, recording the reason.
func (r *Repository) UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status leads.Status, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $2, status_reason = $3 WHERE id = $1`,
		leadID, status, reason)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLeadsByCampaign returns the campaign's leads in stable score-descending
// order; ties break on creation time so the queue order is deterministic and
// resumable by index.
func (r *Repository) GetLeadsByCampaign(ctx context.Context, campaignID uuid.UUID, statuses ...leads.Status) ([]leads.Lead, error) {
	query := `
		SELECT id, campaign_id, company, website, city, region,
		       decision_maker_name, decision_maker_role,
		       email, email_type, confidence, phone,
		       score, status, status_reason, raw_payload, created_at
		FROM leads
		WHERE campaign_id = $1`
	args := []interface{}{campaignID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		statusValues := make([]string, len(statuses))
		for i, s := range statuses {
			statusValues[i] = string(s)
		}
		args = append(args, statusValues)
	}
	query += ` ORDER BY score DESC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get leads by campaign: %w", err)
	}
	defer rows.Close()

	var result []leads.Lead
	for rows.Next() {
		var l leads.Lead
		if err := rows.Scan(
			&l.ID, &l.CampaignID, &l.Company, &l.Website, &l.City, &l.Region,
			&l.DecisionMakerName, &l.DecisionMakerRole,
			&l.Email, &l.EmailType, &l.Confidence, &l.Phone,
			&l.Score, &l.Status, &l.StatusReason, &l.RawPayload, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// LogSendAttempt records a pending attempt before the provider call, so a
// crash mid-call leaves an auditable row rather than silence.
func (r *Repository) LogSendAttempt(ctx context.Context, campaignID, leadID uuid.UUID, email string, attemptNumber int) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO send_attempts (id, campaign_id, lead_id, email, attempt_number, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		id, campaignID, leadID, email, attemptNumber, AttemptStatusPending)
	if err != nil {
		return uuid.Nil, fmt.Errorf("log send attempt: %w", err)
	}
	return id, nil
}

// UpdateSendAttemptStatus finalizes an attempt. Terminal rows are immutable;
// the WHERE clause refuses to overwrite an already-completed attempt.
func (r *Repository) UpdateSendAttemptStatus(ctx context.Context, attemptID uuid.UUID, status string, providerMessageID, errorText *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE send_attempts
		SET status = $2, provider_message_id = $3, error_text = $4, completed_at = NOW()
		WHERE id = $1 AND status = $5`,
		attemptID, status, providerMessageID, errorText, AttemptStatusPending)
	if err != nil {
		return fmt.Errorf("update send attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountLeadAttempts counts all attempts ever made for one lead, for the
// attempt-ceiling gate.
func (r *Repository) CountLeadAttempts(ctx context.Context, leadID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM send_attempts WHERE lead_id = $1`, leadID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count lead attempts: %w", err)
	}
	return count, nil
}

// GetSentCountSince counts successful sends completed at or after the cutoff.
func (r *Repository) GetSentCountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM send_attempts
		WHERE status = $1 AND completed_at >= $2`,
		AttemptStatusSent, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sends since: %w", err)
	}
	return count, nil
}

// GetRecentSendsBulk is the dedup query: one aggregate pass over the send
// history, grouped by lowercased recipient, keeping the most recent
// successful send per address inside the window.
func (r *Repository) GetRecentSendsBulk(ctx context.Context, window time.Duration) (map[string]dedup.RecentSend, error) {
	since := time.Now().Add(-window)

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (LOWER(sa.email))
		       LOWER(sa.email), sa.completed_at, sa.campaign_id, c.name, sa.lead_id
		FROM send_attempts sa
		JOIN campaigns c ON c.id = sa.campaign_id
		WHERE sa.status = $1 AND sa.completed_at >= $2
		ORDER BY LOWER(sa.email), sa.completed_at DESC`,
		AttemptStatusSent, since)
	if err != nil {
		return nil, fmt.Errorf("bulk recent sends: %w", err)
	}
	defer rows.Close()

	recent := make(map[string]dedup.RecentSend)
	for rows.Next() {
		var send dedup.RecentSend
		if err := rows.Scan(&send.Email, &send.LastSentAt, &send.CampaignID, &send.CampaignName, &send.LeadID); err != nil {
			return nil, fmt.Errorf("scan recent send: %w", err)
		}
		recent[send.Email] = send
	}
	return recent, rows.Err()
}

// ListSendAttempts returns a campaign's attempt log, optionally filtered by
// status, newest first.
func (r *Repository) ListSendAttempts(ctx context.Context, campaignID uuid.UUID, status string) ([]SendAttempt, error) {
	query := `
		SELECT id, campaign_id, lead_id, email, attempt_number, status,
		       provider_message_id, error_text, created_at, completed_at
		FROM send_attempts
		WHERE campaign_id = $1`
	args := []interface{}{campaignID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list send attempts: %w", err)
	}
	defer rows.Close()

	var attempts []SendAttempt
	for rows.Next() {
		var a SendAttempt
		if err := rows.Scan(
			&a.ID, &a.CampaignID, &a.LeadID, &a.Email, &a.AttemptNumber, &a.Status,
			&a.ProviderMessageID, &a.ErrorText, &a.CreatedAt, &a.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan send attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
