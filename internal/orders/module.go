// Package orders provides the order fulfillment bounded context module.
// It owns order creation, distribution accounting and lifecycle state.
package orders

import (
	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/orders/handler"
	"leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/internal/orders/service"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule wires the orders module. The campaign and agent ports are
// implemented by the campaigns and agents modules and injected here to keep
// the dependency direction one-way.
func NewModule(
	pool *pgxpool.Pool,
	campaigns service.CampaignReader,
	agents service.AgentDirectory,
	eventBus events.Bus,
	val *validator.Validator,
	cfg config.OrderConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	recalc := service.NewVolumeLimitRecalculator(repo)
	svc := service.NewService(repo, campaigns, agents, recalc, eventBus, log, cfg.GetDefaultDailyLeadLimit())
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// Service exposes the orders service to sibling modules (billing creates
// orders for payments, leads reports fulfillment progress).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the orders persistence port to sibling modules.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/orders"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/orders"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
