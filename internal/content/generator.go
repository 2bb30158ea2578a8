// Package content produces the subject and body for outbound messages.
// Generation is LLM-backed when configured, with a fixed-template fallback
// so a generator failure never blocks a send.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"outreach_backend/internal/leads"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"google.golang.org/genai"
)

// Generator produces personalized email content for a lead. Implementations
// must tolerate partial enrichment (missing decision-maker, city, website)
// and must only ever return an error, never panic the scheduler.
type Generator interface {
	Generate(ctx context.Context, lead leads.Lead) (subject, body string, err error)
}

// GeminiGenerator drafts content with the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, cfg config.ContentConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   cfg.GetGeminiModel(),
		timeout: cfg.GetContentTimeout(),
	}, nil
}

type generatedContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Generate implements Generator. The call is bounded by the configured
// timeout; the model is asked for a strict JSON object so the reply can be
// decoded without scraping.
func (g *GeminiGenerator) Generate(ctx context.Context, lead leads.Lead) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(lead)), nil)
	if err != nil {
		return "", "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed generatedContent
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return "", "", fmt.Errorf("decode gemini reply: %w", err)
	}
	if parsed.Subject == "" || parsed.Body == "" {
		return "", "", fmt.Errorf("gemini reply missing subject or body")
	}

	return parsed.Subject, parsed.Body, nil
}

func buildPrompt(lead leads.Lead) string {
	var b strings.Builder
	b.WriteString("Escreva um e-mail curto de prospecção B2B em português para a clínica abaixo. ")
	b.WriteString("Responda APENAS com um objeto JSON {\"subject\": ..., \"body\": ...}, corpo em HTML simples.\n")
	fmt.Fprintf(&b, "Empresa: %s\n", lead.Company)
	if lead.City != "" {
		fmt.Fprintf(&b, "Cidade: %s\n", lead.City)
	}
	if lead.DecisionMakerName != "" {
		fmt.Fprintf(&b, "Contato: %s (%s)\n", lead.DecisionMakerName, lead.DecisionMakerRole)
	}
	if lead.Website != "" {
		fmt.Fprintf(&b, "Site: %s\n", lead.Website)
	}
	return b.String()
}

// WithFallback wraps a primary generator with the fixed-template fallback.
// A primary failure is logged and degraded, never surfaced to the scheduler.
type WithFallback struct {
	primary  Generator
	fallback *TemplateGenerator
	log      *logger.Logger
}

// NewWithFallback builds the degrading generator chain. A nil primary means
// templates only.
func NewWithFallback(primary Generator, fallback *TemplateGenerator, log *logger.Logger) *WithFallback {
	return &WithFallback{primary: primary, fallback: fallback, log: log}
}

// Generate implements Generator.
func (w *WithFallback) Generate(ctx context.Context, lead leads.Lead) (string, string, error) {
	if w.primary != nil {
		subject, body, err := w.primary.Generate(ctx, lead)
		if err == nil {
			return subject, body, nil
		}
		w.log.Warn("content generation failed, using fallback template",
			"company", lead.Company, "error", err)
	}
	return w.fallback.Generate(ctx, lead)
}
