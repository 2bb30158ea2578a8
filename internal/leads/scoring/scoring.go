// Package scoring assigns quality scores to leads. Scoring is deterministic
// for a fixed input and suppression snapshot; the weights are configuration,
// not constants, because they are tuned between prospecting rounds.
package scoring

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"

	"outreach_backend/internal/leads"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Discard reasons carried on disqualified results. The operator surface
// reports these verbatim, so they stay human-readable.
const (
	ReasonNoValidEmail        = "no valid email"
	ReasonSuppressed          = "suppressed"
	ReasonUndeliverableDomain = "domain cannot receive mail"
)

// SuppressedValue is the legacy sentinel persisted on suppressed leads so
// historical reports can keep telling the two discard classes apart.
const SuppressedValue = -1

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Result is the tagged outcome of scoring one lead. Disqualified results
// carry a reason; the Value of a disqualified result is only meaningful for
// reporting (0 for no email, SuppressedValue for suppression hits).
type Result struct {
	Value        int
	Disqualified bool
	Reason       string
}

// Scored builds a qualifying result.
func Scored(value int) Result {
	return Result{Value: value}
}

// Disqualify builds a non-qualifying result with the given sentinel value.
func Disqualify(value int, reason string) Result {
	return Result{Value: value, Disqualified: true, Reason: reason}
}

// Weights holds the point values for each scoring signal.
type Weights struct {
	EmailExists      int
	EmailNominal     int
	EmailRole        int
	EmailGeneric     int
	EmailFormOnly    int
	ConfidenceHigh   int
	ConfidenceMedium int
	ConfidenceLow    int
	DecisionMaker    int
	Website          int
}

// DefaultWeights returns the currently tuned point values.
func DefaultWeights() Weights {
	return Weights{
		EmailExists:      30,
		EmailNominal:     25,
		EmailRole:        20,
		EmailGeneric:     10,
		EmailFormOnly:    0,
		ConfidenceHigh:   25,
		ConfidenceMedium: 15,
		ConfidenceLow:    5,
		DecisionMaker:    10,
		Website:          10,
	}
}

// WeightsFromConfig loads the point values from configuration.
func WeightsFromConfig(cfg config.ScoringConfig) Weights {
	return Weights{
		EmailExists:      cfg.GetWeightEmailExists(),
		EmailNominal:     cfg.GetWeightEmailNominal(),
		EmailRole:        cfg.GetWeightEmailRole(),
		EmailGeneric:     cfg.GetWeightEmailGeneric(),
		EmailFormOnly:    cfg.GetWeightEmailFormOnly(),
		ConfidenceHigh:   cfg.GetWeightConfidenceHigh(),
		ConfidenceMedium: cfg.GetWeightConfidenceMedium(),
		ConfidenceLow:    cfg.GetWeightConfidenceLow(),
		DecisionMaker:    cfg.GetWeightDecisionMaker(),
		Website:          cfg.GetWeightWebsite(),
	}
}

// SuppressionChecker is the narrow cache handle the scorer consults.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}

// Scorer computes lead scores. The resolver is optional; a nil resolver
// disables the MX check entirely.
type Scorer struct {
	weights    Weights
	suppressed SuppressionChecker
	resolver   *net.Resolver
	log        *logger.Logger
}

// New creates a Scorer.
func New(weights Weights, suppressed SuppressionChecker, resolver *net.Resolver, log *logger.Logger) *Scorer {
	return &Scorer{
		weights:    weights,
		suppressed: suppressed,
		resolver:   resolver,
		log:        log,
	}
}

// Score evaluates one lead. The email syntax check short-circuits everything
// else, including the suppression lookup, so a lead without a valid address
// always reports "no valid email" even when it is also suppressed.
func (s *Scorer) Score(ctx context.Context, lead leads.Lead) Result {
	if !emailPattern.MatchString(lead.Email) {
		return Disqualify(0, ReasonNoValidEmail)
	}

	if s.suppressed != nil {
		hit, err := s.suppressed.IsSuppressed(ctx, lead.Email)
		if err != nil {
			s.log.Warn("suppression lookup failed during scoring, treating as clear",
				"email", lead.Email, "error", err)
		} else if hit {
			return Disqualify(SuppressedValue, ReasonSuppressed)
		}
	}

	score := s.weights.EmailExists
	score += s.emailTypeBonus(lead.EmailType)
	score += s.confidenceBonus(lead.Confidence)

	if lead.DecisionMakerName != "" {
		score += s.weights.DecisionMaker
	}
	if lead.Website != "" {
		score += s.weights.Website
	}

	return Scored(clampScore(score))
}

// VerifyDomain runs the optional MX lookup for an already-qualified lead.
// A missing resolver or a lookup error skips the check with a warning; only a
// clean "no MX records" answer reports the domain as undeliverable.
func (s *Scorer) VerifyDomain(ctx context.Context, email string) (deliverable bool, checked bool) {
	if s.resolver == nil {
		s.log.Warn("mx check skipped, no resolver configured", "email", email)
		return true, false
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return true, false
	}
	domain := email[at+1:]

	records, err := s.resolver.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, true
		}
		s.log.Warn("mx check skipped, lookup failed", "domain", domain, "error", err)
		return true, false
	}

	return len(records) > 0, true
}

func (s *Scorer) emailTypeBonus(emailType leads.EmailType) int {
	switch emailType {
	case leads.EmailTypeNominal:
		return s.weights.EmailNominal
	case leads.EmailTypeRole:
		return s.weights.EmailRole
	case leads.EmailTypeGeneric:
		return s.weights.EmailGeneric
	default:
		return s.weights.EmailFormOnly
	}
}

func (s *Scorer) confidenceBonus(confidence leads.Confidence) int {
	switch confidence {
	case leads.ConfidenceHigh:
		return s.weights.ConfidenceHigh
	case leads.ConfidenceMedium:
		return s.weights.ConfidenceMedium
	default:
		return s.weights.ConfidenceLow
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
