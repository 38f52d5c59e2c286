// Package campaigns provides the campaign management bounded context module.
package campaigns

import (
	"leadmarket_backend/internal/campaigns/handler"
	"leadmarket_backend/internal/campaigns/repository"
	"leadmarket_backend/internal/campaigns/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the campaigns bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
	pricing *PricingAdapter
}

// NewModule creates and initializes the campaigns module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
		pricing: NewPricingAdapter(repo),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// PricingReader exposes campaign pricing to the orders module.
func (m *Module) PricingReader() *PricingAdapter {
	return m.pricing
}

// Repository exposes campaign persistence to sibling modules (notification
// resolves administrator addresses).
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts campaign routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/campaigns"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/campaigns"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
