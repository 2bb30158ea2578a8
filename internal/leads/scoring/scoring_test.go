package scoring

import (
	"context"
	"errors"
	"testing"

	"outreach_backend/internal/leads"
	"outreach_backend/platform/logger"
)

type fakeSuppression struct {
	hits map[string]bool
	err  error
}

func (f *fakeSuppression) IsSuppressed(_ context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.hits[email], nil
}

func newTestScorer(suppressed SuppressionChecker) *Scorer {
	return New(DefaultWeights(), suppressed, nil, logger.New("development"))
}

func TestScoreFullSignalLead(t *testing.T) {
	scorer := newTestScorer(&fakeSuppression{})

	lead := leads.Lead{
		Company:           "Padaria Central",
		Website:           "https://padariacentral.com.br",
		DecisionMakerName: "Ana Souza",
		Email:             "ana@padariacentral.com.br",
		EmailType:         leads.EmailTypeNominal,
		Confidence:        leads.ConfidenceHigh,
	}

	result := scorer.Score(context.Background(), lead)
	if result.Disqualified {
		t.Fatalf("expected lead to qualify, got reason %q", result.Reason)
	}
	// 30 exists + 25 nominal + 25 high + 10 decision maker + 10 website
	if result.Value != 100 {
		t.Fatalf("expected score 100, got %d", result.Value)
	}
}

func TestScoreGenericLowConfidenceLead(t *testing.T) {
	scorer := newTestScorer(&fakeSuppression{})

	lead := leads.Lead{
		Email:      "contato@empresa.com.br",
		EmailType:  leads.EmailTypeGeneric,
		Confidence: leads.ConfidenceLow,
	}

	result := scorer.Score(context.Background(), lead)
	if result.Disqualified {
		t.Fatalf("expected lead to qualify, got reason %q", result.Reason)
	}
	// 30 exists + 10 generic + 5 low
	if result.Value != 45 {
		t.Fatalf("expected score 45, got %d", result.Value)
	}
}

func TestScoreMissingEmailDisqualifies(t *testing.T) {
	scorer := newTestScorer(&fakeSuppression{})

	result := scorer.Score(context.Background(), leads.Lead{Company: "Sem Email LTDA"})
	if !result.Disqualified {
		t.Fatal("expected disqualification for missing email")
	}
	if result.Reason != ReasonNoValidEmail {
		t.Fatalf("expected reason %q, got %q", ReasonNoValidEmail, result.Reason)
	}
	if result.Value != 0 {
		t.Fatalf("expected sentinel 0 for missing email, got %d", result.Value)
	}
}

func TestScoreMalformedEmailDisqualifies(t *testing.T) {
	scorer := newTestScorer(&fakeSuppression{})

	for _, email := range []string{"not-an-email", "a@b", "joao@@empresa.com", "joao@empresa.c"} {
		result := scorer.Score(context.Background(), leads.Lead{Email: email})
		if !result.Disqualified || result.Reason != ReasonNoValidEmail {
			t.Fatalf("expected %q to be rejected as invalid, got %+v", email, result)
		}
	}
}

func TestScoreSuppressedLeadGetsSentinel(t *testing.T) {
	scorer := newTestScorer(&fakeSuppression{hits: map[string]bool{"ana@empresa.com.br": true}})

	result := scorer.Score(context.Background(), leads.Lead{
		Email:     "ana@empresa.com.br",
		EmailType: leads.EmailTypeNominal,
	})
	if !result.Disqualified {
		t.Fatal("expected disqualification for suppressed address")
	}
	if result.Reason != ReasonSuppressed {
		t.Fatalf("expected reason %q, got %q", ReasonSuppressed, result.Reason)
	}
	if result.Value != SuppressedValue {
		t.Fatalf("expected sentinel %d, got %d", SuppressedValue, result.Value)
	}
}

func TestScoreInvalidEmailWinsOverSuppression(t *testing.T) {
	// The syntax gate short-circuits everything, even a suppression hit on
	// the same (malformed) address.
	scorer := newTestScorer(&fakeSuppression{hits: map[string]bool{"broken@@mail": true}})

	result := scorer.Score(context.Background(), leads.Lead{Email: "broken@@mail"})
	if result.Reason != ReasonNoValidEmail {
		t.Fatalf("expected invalid-email reason to win, got %q", result.Reason)
	}
}

func TestScoreSuppressionLookupErrorTreatedAsClear(t *testing.T) {
	scorer := newTestScorer(&fakeSuppression{err: errors.New("cache reload failed")})

	result := scorer.Score(context.Background(), leads.Lead{
		Email:      "ana@empresa.com.br",
		EmailType:  leads.EmailTypeRole,
		Confidence: leads.ConfidenceMedium,
	})
	if result.Disqualified {
		t.Fatalf("expected lookup failure to degrade to a normal score, got %+v", result)
	}
	// 30 exists + 20 role + 15 medium
	if result.Value != 65 {
		t.Fatalf("expected score 65, got %d", result.Value)
	}
}

func TestScoreNilSuppressionCheckerSkipsLookup(t *testing.T) {
	scorer := newTestScorer(nil)

	result := scorer.Score(context.Background(), leads.Lead{
		Email:      "ana@empresa.com.br",
		Confidence: leads.ConfidenceLow,
		EmailType:  leads.EmailTypeFormOnly,
	})
	if result.Disqualified {
		t.Fatalf("expected qualification, got %+v", result)
	}
	// 30 exists + 0 form only + 5 low
	if result.Value != 35 {
		t.Fatalf("expected score 35, got %d", result.Value)
	}
}

func TestVerifyDomainWithoutResolverSkips(t *testing.T) {
	scorer := newTestScorer(&fakeSuppression{})

	deliverable, checked := scorer.VerifyDomain(context.Background(), "ana@empresa.com.br")
	if checked {
		t.Fatal("expected check to be skipped without a resolver")
	}
	if !deliverable {
		t.Fatal("skipped check must not mark the domain undeliverable")
	}
}

func TestClampScoreBounds(t *testing.T) {
	if got := clampScore(140); got != 100 {
		t.Fatalf("expected clamp to 100, got %d", got)
	}
	if got := clampScore(-5); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
	if got := clampScore(73); got != 73 {
		t.Fatalf("expected passthrough 73, got %d", got)
	}
}
