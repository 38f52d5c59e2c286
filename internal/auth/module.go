// Package auth provides the authentication bounded context module.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadmarket_backend/internal/auth/handler"
	"leadmarket_backend/internal/auth/repository"
	"leadmarket_backend/internal/auth/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, svc: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service exposes the auth service for composition roots.
func (m *Module) Service() *service.Service {
	return m.svc
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/auth"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/users"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
