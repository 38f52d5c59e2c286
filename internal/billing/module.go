// Package billing provides the payment bounded context module.
// It receives payment gateway webhooks and converts them into orders.
package billing

import (
	"github.com/redis/go-redis/v9"

	"leadmarket_backend/internal/billing/handler"
	"leadmarket_backend/internal/billing/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
)

// Module is the billing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the billing module with all its dependencies.
func NewModule(redisClient redis.Cmdable, orders service.OrderCreator, cfg config.StripeConfig, log *logger.Logger) *Module {
	idempotency := service.NewIdempotencyStore(redisClient)
	svc := service.New(orders, idempotency, log)
	h := handler.NewHandler(svc, cfg.GetStripeWebhookSecret(), log)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "billing"
}

// RegisterRoutes mounts the webhook endpoint directly on the engine.
// Gateway deliveries are authenticated by signature, not JWT.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/api/webhooks/stripe", m.handler.HandleStripeWebhook)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
