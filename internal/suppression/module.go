package suppression

import (
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the suppression bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	cache   *Cache
}

// NewModule creates the suppression module. The sent counter comes from the
// campaigns ledger; it backs the cached daily quota count.
func NewModule(
	pool *pgxpool.Pool,
	cfg config.SuppressionConfig,
	counts SentCounter,
	bus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := NewRepository(pool)
	cache := NewCache(repo, counts, cfg.GetSuppressionCacheTTL(), cfg.GetDailyCountCacheTTL(), nil, log)
	svc := NewService(repo, cache, bus)
	h := NewHandler(svc, val)

	return &Module{handler: h, service: svc, cache: cache}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "suppression"
}

// Service returns the suppression service for cross-module use.
func (m *Module) Service() *Service {
	return m.service
}

// Cache returns the cached suppression view used by scoring and dispatch.
func (m *Module) Cache() *Cache {
	return m.cache
}

// RegisterRoutes mounts suppression routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
