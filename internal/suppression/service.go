package suppression

import (
	"context"
	"strings"

	"outreach_backend/internal/events"
	"outreach_backend/platform/apperr"
)

// Service wraps the repository with cache invalidation and event publishing.
// The cache must be invalidated before Add returns so the next lookup is
// guaranteed fresh.
type Service struct {
	repo  *Repository
	cache *Cache
	bus   events.Bus
}

// NewService creates a suppression service.
func NewService(repo *Repository, cache *Cache, bus events.Bus) *Service {
	return &Service{repo: repo, cache: cache, bus: bus}
}

// Suppress adds an address to the opt-out list. Idempotent.
func (s *Service) Suppress(ctx context.Context, email, reason string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperr.Validation("email is required")
	}
	if reason == "" {
		reason = "manual"
	}

	if err := s.repo.Add(ctx, email, reason); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to add suppression entry", err)
	}

	s.cache.Invalidate()

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadSuppressed{
			BaseEvent: events.NewBaseEvent(),
			Email:     email,
			Reason:    reason,
		})
	}

	return nil
}

// IsSuppressed answers through the cache.
func (s *Service) IsSuppressed(ctx context.Context, email string) (bool, error) {
	return s.cache.IsSuppressed(ctx, email)
}

// List returns all suppression entries for the operator surface.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list suppression entries", err)
	}
	return entries, nil
}
