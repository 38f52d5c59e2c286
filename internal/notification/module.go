// Package notification emails campaign administrators about order and import
// activity. Handlers run off the event bus; a failed email never affects the
// operation that raised the event.
package notification

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campaignsrepo "leadmarket_backend/internal/campaigns/repository"
	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/logger"
)

// maxConcurrentSends caps parallel SMTP deliveries per event.
const maxConcurrentSends = 4

// CampaignReader loads the campaign whose administrators get notified.
type CampaignReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (campaignsrepo.Campaign, error)
}

// Module is the notification bounded context module.
type Module struct {
	sender    email.Sender
	campaigns CampaignReader
	log       *logger.Logger
}

// NewModule creates and initializes the notification module.
func NewModule(sender email.Sender, campaigns CampaignReader, log *logger.Logger) *Module {
	return &Module{sender: sender, campaigns: campaigns, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.OrderCreated{}.EventName(), m)
	bus.Subscribe(events.OrderCancelled{}.EventName(), m)
	bus.Subscribe(events.LeadsImported{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OrderCreated:
		return m.handleOrderCreated(ctx, e)
	case events.OrderCancelled:
		return m.handleOrderCancelled(ctx, e)
	case events.LeadsImported:
		return m.handleLeadsImported(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleOrderCreated(ctx context.Context, e events.OrderCreated) error {
	campaign, err := m.campaigns.GetByID(ctx, e.CampaignID)
	if err != nil {
		return err
	}

	data := email.OrderCreatedData{
		CampaignName:       campaign.Name,
		AgentName:          e.AgentName,
		OrderType:          e.OrderType,
		TotalCents:         e.TotalCents,
		FreshTarget:        e.FreshTarget,
		SecondChanceTarget: e.SecondChanceTarget,
	}
	m.sendToAdmins(ctx, campaign, "order created", func(to string) error {
		return m.sender.SendOrderCreatedEmail(ctx, to, data)
	})
	return nil
}

func (m *Module) handleOrderCancelled(ctx context.Context, e events.OrderCancelled) error {
	campaign, err := m.campaigns.GetByID(ctx, e.CampaignID)
	if err != nil {
		return err
	}

	data := email.OrderCancelledData{
		CampaignName: campaign.Name,
		AgentName:    e.AgentName,
		TotalCents:   e.TotalCents,
		Reason:       e.Reason,
	}
	m.sendToAdmins(ctx, campaign, "order cancelled", func(to string) error {
		return m.sender.SendOrderCancelledEmail(ctx, to, data)
	})
	return nil
}

func (m *Module) handleLeadsImported(ctx context.Context, e events.LeadsImported) error {
	campaign, err := m.campaigns.GetByID(ctx, e.CampaignID)
	if err != nil {
		return err
	}

	data := email.ImportCompletedData{
		CampaignName: campaign.Name,
		Origin:       e.Origin,
		Imported:     e.Imported,
		Skipped:      e.Skipped,
	}
	m.sendToAdmins(ctx, campaign, "import completed", func(to string) error {
		return m.sender.SendImportCompletedEmail(ctx, to, data)
	})
	return nil
}

// sendToAdmins delivers to every campaign administrator concurrently.
// Individual failures are logged so one bad address does not block the rest.
func (m *Module) sendToAdmins(ctx context.Context, campaign campaignsrepo.Campaign, kind string, send func(to string) error) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)
	for _, to := range campaign.AdminEmails {
		g.Go(func() error {
			if err := send(to); err != nil {
				m.log.Error("failed to send notification email",
					"kind", kind, "campaignId", campaign.ID, "to", to, "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()
}
