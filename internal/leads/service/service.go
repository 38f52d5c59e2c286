package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/repository"
	ordersrepo "leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/phone"
)

// OrderBook is the slice of the orders module the sale operations consume:
// per-leg open-order selection and the close check after each link.
type OrderBook interface {
	OldestOpenForFresh(ctx context.Context, agentID, campaignID uuid.UUID) (ordersrepo.Order, error)
	OldestOpenForSecondChance(ctx context.Context, agentID, campaignID uuid.UUID) (ordersrepo.Order, error)
	CheckAndClose(ctx context.Context, orderID uuid.UUID) (ordersrepo.Order, error)
}

// LimitReader reads the agent's daily distribution cap for a campaign.
type LimitReader interface {
	DailyLeadLimit(ctx context.Context, agentID, campaignID uuid.UUID) (int, error)
}

// Service provides lead intake and sale operations.
type Service struct {
	repo   repository.Repository
	orders OrderBook
	limits LimitReader
	bus    events.Bus
	log    *logger.Logger
}

// New creates a new leads service.
func New(repo repository.Repository, orders OrderBook, limits LimitReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		orders: orders,
		limits: limits,
		bus:    bus,
		log:    log,
	}
}

// GetByID retrieves a lead.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves leads with filters and pagination.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	return s.repo.List(ctx, params)
}

// Create captures a single inbound lead, rejecting fuzzy duplicates within
// the campaign.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (repository.Lead, error) {
	if _, found, err := s.FindDuplicate(ctx, params.CampaignID, params.FirstName, params.LastName); err != nil {
		return repository.Lead{}, err
	} else if found {
		return repository.Lead{}, apperr.Conflict("lead already exists for this campaign")
	}

	params.Phone = phone.NormalizeE164(params.Phone)
	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Lead{}, err
	}

	s.log.Info("lead created", "leadId", lead.ID, "campaignId", lead.CampaignID, "origin", lead.Origin)
	return lead, nil
}

// SellFresh sells a lead to the agent's oldest open order that still needs
// fresh leads. The link is immutable; selling an already-sold lead fails with
// a conflict. After linking, the order is closed if both targets are now met.
func (s *Service) SellFresh(ctx context.Context, leadID, agentID, campaignID uuid.UUID) (repository.Lead, error) {
	if err := s.checkDailyLimit(ctx, agentID, campaignID); err != nil {
		return repository.Lead{}, err
	}

	order, err := s.orders.OldestOpenForFresh(ctx, agentID, campaignID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return repository.Lead{}, apperr.Conflict("agent has no open order needing fresh leads")
		}
		return repository.Lead{}, err
	}

	lead, err := s.repo.LinkFresh(ctx, leadID, order.ID, agentID, time.Now().UTC())
	if err != nil {
		return repository.Lead{}, err
	}

	s.finishSale(ctx, lead, order, false)
	return lead, nil
}

// SellSecondChance sells a previously captured lead as a second-chance lead.
// The fresh buyer is never resold the same lead.
func (s *Service) SellSecondChance(ctx context.Context, leadID, agentID, campaignID uuid.UUID) (repository.Lead, error) {
	if err := s.checkDailyLimit(ctx, agentID, campaignID); err != nil {
		return repository.Lead{}, err
	}

	order, err := s.orders.OldestOpenForSecondChance(ctx, agentID, campaignID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return repository.Lead{}, apperr.Conflict("agent has no open order needing second chance leads")
		}
		return repository.Lead{}, err
	}

	lead, err := s.repo.LinkSecondChance(ctx, leadID, order.ID, agentID, time.Now().UTC())
	if err != nil {
		return repository.Lead{}, err
	}

	s.finishSale(ctx, lead, order, true)
	return lead, nil
}

// checkDailyLimit rejects the sale when today's distributions already reached
// the agent's cap. A cap of zero means unlimited.
func (s *Service) checkDailyLimit(ctx context.Context, agentID, campaignID uuid.UUID) error {
	limit, err := s.limits.DailyLeadLimit(ctx, agentID, campaignID)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	sold, err := s.repo.SoldTodayCount(ctx, agentID, campaignID)
	if err != nil {
		return err
	}
	if sold >= limit {
		return apperr.Conflict("daily lead limit reached")
	}
	return nil
}

// finishSale runs the close check and announces the sale. Neither failure
// rolls back the link: the lead is sold either way.
func (s *Service) finishSale(ctx context.Context, lead repository.Lead, order ordersrepo.Order, secondChance bool) {
	if _, err := s.orders.CheckAndClose(ctx, order.ID); err != nil {
		s.log.Error("close check after sale failed", "orderId", order.ID, "error", err.Error())
	}

	agentID := order.AgentID
	s.log.Info("lead sold",
		"leadId", lead.ID, "orderId", order.ID,
		"agentId", agentID, "secondChance", secondChance,
	)
	s.bus.Publish(ctx, events.LeadSold{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		OrderID:      order.ID,
		CampaignID:   lead.CampaignID,
		AgentID:      agentID,
		SecondChance: secondChance,
	})
}
