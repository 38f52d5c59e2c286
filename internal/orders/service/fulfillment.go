package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/orders/repository"
)

// TargetsMet reports whether both legs of an order have reached their
// targets. A target of zero is trivially satisfied.
func TargetsMet(order repository.Order, counts repository.FulfillmentCounts) bool {
	return counts.Fresh >= order.FreshTarget && counts.SecondChance >= order.SecondChanceTarget
}

// CheckAndClose recomputes the order's fulfillment counts and closes it when
// both targets are met. Calling it on an already-closed order changes
// nothing; partial fulfillment (one leg done, the other outstanding) leaves
// the order open.
func (s *Service) CheckAndClose(ctx context.Context, orderID uuid.UUID) (repository.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return repository.Order{}, err
	}

	if order.Status == repository.OrderStatusClosed {
		return order, nil
	}

	counts, err := s.repo.Fulfillment(ctx, orderID)
	if err != nil {
		return repository.Order{}, err
	}

	if !TargetsMet(order, counts) {
		return order, nil
	}

	closed, err := s.repo.Close(ctx, orderID, time.Now().UTC())
	if err != nil {
		return repository.Order{}, err
	}

	s.log.OrderClosed(closed.ID.String(), closed.FreshTarget, closed.SecondChanceTarget)
	s.bus.Publish(ctx, events.OrderClosed{
		BaseEvent:  events.NewBaseEvent(),
		OrderID:    closed.ID,
		CampaignID: closed.CampaignID,
		AgentID:    closed.AgentID,
	})

	return closed, nil
}
