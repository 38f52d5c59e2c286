package crm

import (
	"context"
	"fmt"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/platform/logger"
)

// Module bridges lead sale events to the durable delivery queue. It runs in
// the API process; the Pusher runs in the worker process.
type Module struct {
	scheduler scheduler.LeadDeliveryScheduler
	log       *logger.Logger
}

// NewModule creates the crm module.
func NewModule(sched scheduler.LeadDeliveryScheduler, log *logger.Logger) *Module {
	return &Module{scheduler: sched, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "crm"
}

// RegisterHandlers subscribes to the domain events that trigger CRM delivery.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.LeadSold{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadSold:
		return m.handleLeadSold(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadSold(ctx context.Context, e events.LeadSold) error {
	err := m.scheduler.EnqueueCRMPush(ctx, scheduler.CRMPushLeadPayload{
		LeadID:       e.LeadID.String(),
		AgentID:      e.AgentID.String(),
		CampaignID:   e.CampaignID.String(),
		OrderID:      e.OrderID.String(),
		SecondChance: e.SecondChance,
	})
	if err != nil {
		return fmt.Errorf("enqueue crm delivery: %w", err)
	}
	return nil
}
