// Package exports provides admin CSV downloads of sold leads.
package exports

import (
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(NewRepo(pool), log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts the admin export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/exports"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
