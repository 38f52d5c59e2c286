// Package agents provides the lead buyer management bounded context module.
package agents

import (
	"leadmarket_backend/internal/agents/handler"
	"leadmarket_backend/internal/agents/repository"
	"leadmarket_backend/internal/agents/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	repo      repository.Repository
	directory *DirectoryAdapter
}

// NewModule creates and initializes the agents module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler:   handler.New(svc, val),
		service:   svc,
		repo:      repo,
		directory: NewDirectoryAdapter(repo),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Directory exposes agent and membership state to the orders module.
func (m *Module) Directory() *DirectoryAdapter {
	return m.directory
}

// Repository exposes agent persistence to sibling modules (CRM delivery
// reads webhook settings, billing resolves buyers from payment metadata).
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts agent routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/agents"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/agents"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
