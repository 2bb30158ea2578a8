// Package campaigns provides the campaign ingestion and control bounded context.
package campaigns

import (
	"net"

	"outreach_backend/internal/campaigns/handler"
	"outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/campaigns/service"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/leads/dedup"
	"outreach_backend/internal/leads/scoring"
	"outreach_backend/internal/scheduler"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the campaigns bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule creates and initializes the campaigns module with all its
// dependencies. The suppression checker comes from the suppression module so
// scoring sees the same cached view the dispatcher uses.
func NewModule(
	pool *pgxpool.Pool,
	cfg *config.Config,
	suppressed scoring.SuppressionChecker,
	enqueuer scheduler.DispatchEnqueuer,
	bus events.Bus,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)

	var resolver *net.Resolver
	if cfg.GetMXCheckEnabled() {
		resolver = net.DefaultResolver
	}
	scorer := scoring.New(scoring.WeightsFromConfig(cfg), suppressed, resolver, log)

	detector := dedup.New(repo)
	approvals := dedup.NewApprovalQueue()

	svc := service.New(repo, scorer, detector, approvals, enqueuer, bus, log, cfg)
	h := handler.New(svc)

	return &Module{handler: h, service: svc, repository: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// Repository exposes the campaign ledger for the dispatcher process.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts campaign routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
