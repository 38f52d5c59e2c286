package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/internal/orders/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

// Service implements order creation and lifecycle management.
type Service struct {
	repo              repository.Repository
	campaigns         CampaignReader
	agents            AgentDirectory
	recalc            LimitRecalculator
	bus               events.Bus
	log               *logger.Logger
	defaultDailyLimit int
	locks             *keyedMutex
}

// NewService creates the orders service.
func NewService(
	repo repository.Repository,
	campaigns CampaignReader,
	agents AgentDirectory,
	recalc LimitRecalculator,
	bus events.Bus,
	log *logger.Logger,
	defaultDailyLimit int,
) *Service {
	return &Service{
		repo:              repo,
		campaigns:         campaigns,
		agents:            agents,
		recalc:            recalc,
		bus:               bus,
		log:               log,
		defaultDailyLimit: defaultDailyLimit,
		locks:             newKeyedMutex(),
	}
}

// CreateOrder turns a completed payment into a stored order with computed
// lead targets, applies the leftover rollover when the previous cycle was
// fully consumed, and recalculates the agent's daily lead limit.
//
// The whole sequence runs under a per agent+campaign lock: the rollover and
// limit decisions read open-order state and would race against a concurrent
// creation for the same pair.
func (s *Service) CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (repository.Order, error) {
	unlock := s.locks.Lock(req.AgentID.String() + ":" + req.CampaignID.String())
	defer unlock()

	agent, err := s.agents.GetProfile(ctx, req.AgentID)
	if err != nil {
		return repository.Order{}, err
	}
	membership, err := s.agents.GetMembership(ctx, req.AgentID, req.CampaignID)
	if err != nil {
		return repository.Order{}, err
	}
	campaign, err := s.campaigns.GetPricing(ctx, req.CampaignID)
	if err != nil {
		return repository.Order{}, err
	}

	_, hasClosed, err := s.lookupOrder(ctx, req.AgentID, req.CampaignID, s.repo.MostRecentClosed)
	if err != nil {
		return repository.Order{}, err
	}
	_, hasOpenFresh, err := s.lookupOrder(ctx, req.AgentID, req.CampaignID, s.repo.OldestOpenForFresh)
	if err != nil {
		return repository.Order{}, err
	}
	_, hasOpenSecondChance, err := s.lookupOrder(ctx, req.AgentID, req.CampaignID, s.repo.OldestOpenForSecondChance)
	if err != nil {
		return repository.Order{}, err
	}

	order := repository.Order{
		CampaignID: req.CampaignID,
		AgentID:    req.AgentID,
		TotalCents: req.TotalCents,
		Type:       repository.OrderType(req.OrderType),
	}
	if err := ApplyLeadAmounts(&order, campaign, membership, agent, req.Products); err != nil {
		return repository.Order{}, err
	}

	// Rollover: a balance carried over from a finished cycle buys extra leads
	// on this order, but only when no open order could still absorb it.
	if hasClosed && !hasOpenFresh && !hasOpenSecondChance && req.LeftoverCents > 0 {
		dt := DetermineDistributionType(order, agent)
		extraFresh, extraSecondChance := LeftoverExtraLeads(
			req.LeftoverCents,
			membership.FreshPriceCents(campaign),
			membership.SecondChancePriceCents(campaign),
			dt,
		)
		order.FreshTarget += extraFresh
		order.SecondChanceTarget += extraSecondChance
	}

	created, err := s.repo.Create(ctx, repository.CreateParams{
		CampaignID:         order.CampaignID,
		AgentID:            order.AgentID,
		TotalCents:         order.TotalCents,
		Type:               order.Type,
		FreshTarget:        order.FreshTarget,
		SecondChanceTarget: order.SecondChanceTarget,
		PaymentID:          req.PaymentID,
		Rules:              req.Rules,
	})
	if err != nil {
		return repository.Order{}, err
	}

	s.updateDailyLimit(ctx, created, membership, hasOpenFresh || hasOpenSecondChance)

	s.bus.Publish(ctx, events.OrderCreated{
		BaseEvent:          events.NewBaseEvent(),
		OrderID:            created.ID,
		CampaignID:         created.CampaignID,
		AgentID:            created.AgentID,
		AgentName:          agent.Name,
		OrderType:          string(created.Type),
		TotalCents:         created.TotalCents,
		FreshTarget:        created.FreshTarget,
		SecondChanceTarget: created.SecondChanceTarget,
	})

	return created, nil
}

// lookupOrder wraps a single-order repository lookup, folding the not-found
// case into a boolean.
func (s *Service) lookupOrder(
	ctx context.Context,
	agentID, campaignID uuid.UUID,
	find func(ctx context.Context, agentID, campaignID uuid.UUID) (repository.Order, error),
) (repository.Order, bool, error) {
	order, err := find(ctx, agentID, campaignID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return repository.Order{}, false, nil
		}
		return repository.Order{}, false, err
	}
	return order, true, nil
}

// updateDailyLimit recomputes the agent's daily lead cap after an order was
// created. Mid-cycle (an open order still outstanding) the existing limit is
// the floor so a top-up can never lower it; on a fresh cycle the configured
// default is the floor. Persistence failures are logged, not returned: the
// order itself already exists.
func (s *Service) updateDailyLimit(ctx context.Context, order repository.Order, membership Membership, midCycle bool) {
	limit, err := s.recalc.Recalculate(ctx, order.AgentID, order.CampaignID, order)
	if err != nil {
		s.log.Error("daily_limit_recalculation_failed",
			"agent_id", order.AgentID.String(),
			"campaign_id", order.CampaignID.String(),
			"error", err.Error(),
		)
		return
	}

	floor := s.defaultDailyLimit
	if midCycle {
		floor = membership.DailyLeadLimit
	}
	if limit < floor {
		limit = floor
	}

	if err := s.agents.SetDailyLeadLimit(ctx, order.AgentID, order.CampaignID, limit); err != nil {
		s.log.Error("daily_limit_update_failed",
			"agent_id", order.AgentID.String(),
			"campaign_id", order.CampaignID.String(),
			"error", err.Error(),
		)
	}
}

// OldestOpenForFresh returns the earliest open order still needing fresh
// leads for the agent and campaign.
func (s *Service) OldestOpenForFresh(ctx context.Context, agentID, campaignID uuid.UUID) (repository.Order, error) {
	return s.repo.OldestOpenForFresh(ctx, agentID, campaignID)
}

// OldestOpenForSecondChance is the second-chance twin of OldestOpenForFresh.
func (s *Service) OldestOpenForSecondChance(ctx context.Context, agentID, campaignID uuid.UUID) (repository.Order, error) {
	return s.repo.OldestOpenForSecondChance(ctx, agentID, campaignID)
}

// GetOrder fetches a single order.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (repository.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOrderByPaymentID fetches the order created for a payment, if any.
func (s *Service) GetOrderByPaymentID(ctx context.Context, paymentID string) (repository.Order, error) {
	return s.repo.GetByPaymentID(ctx, paymentID)
}

// ListOrders lists orders with filters and pagination.
func (s *Service) ListOrders(ctx context.Context, params repository.ListParams) ([]repository.Order, int, error) {
	return s.repo.List(ctx, params)
}

// GetFulfillment returns an order together with its derived per-leg
// completion counts.
func (s *Service) GetFulfillment(ctx context.Context, orderID uuid.UUID) (repository.Order, repository.FulfillmentCounts, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return repository.Order{}, repository.FulfillmentCounts{}, err
	}
	counts, err := s.repo.Fulfillment(ctx, orderID)
	if err != nil {
		return repository.Order{}, repository.FulfillmentCounts{}, err
	}
	return order, counts, nil
}

// SetPriority activates a distribution priority window on an open order.
func (s *Service) SetPriority(ctx context.Context, orderID uuid.UUID, durationDays int, externalTaskRef string, prioritizedBy *uuid.UUID) (repository.Order, error) {
	if durationDays < 1 {
		return repository.Order{}, apperr.Validation("priority duration must be at least one day")
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return repository.Order{}, err
	}
	if order.Status == repository.OrderStatusClosed {
		return repository.Order{}, apperr.Conflict("cannot prioritize a closed order")
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, durationDays)
	return s.repo.SetPriority(ctx, orderID, repository.PriorityWindow{
		DurationDays:    durationDays,
		StartTime:       &now,
		EndTime:         &end,
		Active:          true,
		PrioritizedBy:   prioritizedBy,
		ExternalTaskRef: externalTaskRef,
	})
}

// CancelOrder closes an order before its targets are met and announces the
// cancellation. Cancelling an already-closed order is rejected.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (repository.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return repository.Order{}, err
	}
	if order.Status == repository.OrderStatusClosed {
		return repository.Order{}, apperr.Conflict("order is already closed")
	}

	closed, err := s.repo.Close(ctx, orderID, time.Now().UTC())
	if err != nil {
		return repository.Order{}, err
	}

	agentName := ""
	if agent, err := s.agents.GetProfile(ctx, closed.AgentID); err == nil {
		agentName = agent.Name
	}

	s.bus.Publish(ctx, events.OrderCancelled{
		BaseEvent:  events.NewBaseEvent(),
		OrderID:    closed.ID,
		CampaignID: closed.CampaignID,
		AgentID:    closed.AgentID,
		AgentName:  agentName,
		TotalCents: closed.TotalCents,
		Reason:     reason,
	})

	return closed, nil
}
