// Package leads provides the lead intake and sale bounded context module.
package leads

import (
	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/leads/handler"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/leads/service"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the leads module. The order book and limit reader are
// implemented by the orders and agents modules; the archiver may be nil when
// object storage is not configured.
func NewModule(
	pool *pgxpool.Pool,
	orders service.OrderBook,
	limits service.LimitReader,
	archiver service.Archiver,
	importBucket string,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, orders, limits, eventBus, log)
	importer := service.NewImporter(svc, archiver, importBucket)

	return &Module{
		handler: handler.New(svc, importer, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the leads service to sibling modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
