package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"

	ordersrepo "leadmarket_backend/internal/orders/repository"
	orderstransport "leadmarket_backend/internal/orders/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

// OrderCreator is the slice of the orders module billing consumes.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req orderstransport.CreateOrderRequest) (ordersrepo.Order, error)
}

// Payment metadata keys set by the checkout frontend on the Stripe object.
const (
	metaCampaignID    = "campaign_id"
	metaAgentID       = "agent_id"
	metaOrderType     = "order_type"
	metaLeftoverCents = "leftover_cents"
	metaProducts      = "products"
)

// Service turns verified payment gateway events into orders.
type Service struct {
	orders      OrderCreator
	idempotency *IdempotencyStore
	log         *logger.Logger
}

// New creates the billing service.
func New(orders OrderCreator, idempotency *IdempotencyStore, log *logger.Logger) *Service {
	return &Service{orders: orders, idempotency: idempotency, log: log}
}

// HandleEvent dispatches a verified gateway event. Unhandled event types are
// acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		return s.handlePaymentSucceeded(ctx, event)
	case "charge.refunded":
		return s.handleChargeRefunded(ctx, event)
	default:
		s.log.Debug("ignoring gateway event", "type", event.Type, "id", event.ID)
		return nil
	}
}

// handlePaymentSucceeded creates the order funded by a completed payment.
// The payment intent id is the idempotency key: Stripe redelivers events and
// only the first delivery may create an order.
func (s *Service) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return apperr.BadRequest("malformed payment intent payload")
	}

	claimed, err := s.idempotency.Claim(ctx, intent.ID)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Info("duplicate payment delivery acknowledged", "paymentId", intent.ID)
		return apperr.Conflict("payment already processed")
	}

	req, err := s.orderRequestFromIntent(intent)
	if err != nil {
		// A malformed payment will stay malformed; keep the claim so
		// retries do not spam the log.
		return err
	}

	s.log.PaymentEvent(string(event.Type), intent.ID, intent.Amount)

	order, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		// Release so Stripe's retry can try again once the cause clears.
		if releaseErr := s.idempotency.Release(ctx, intent.ID); releaseErr != nil {
			s.log.Error("failed to release idempotency key", "paymentId", intent.ID, "error", releaseErr.Error())
		}
		return err
	}

	s.log.Info("order created for payment",
		"paymentId", intent.ID, "orderId", order.ID,
		"freshTarget", order.FreshTarget, "secondChanceTarget", order.SecondChanceTarget,
	)
	return nil
}

// handleChargeRefunded creates a refund order. Refund orders are always
// fresh-only by policy; the distribution rules enforce that from the type.
func (s *Service) handleChargeRefunded(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return apperr.BadRequest("malformed charge payload")
	}

	claimed, err := s.idempotency.Claim(ctx, event.ID)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Info("duplicate refund delivery acknowledged", "eventId", event.ID)
		return apperr.Conflict("refund already processed")
	}

	campaignID, agentID, err := requiredIDs(charge.Metadata)
	if err != nil {
		return err
	}

	paymentID := event.ID
	s.log.PaymentEvent(string(event.Type), paymentID, charge.AmountRefunded)

	_, err = s.orders.CreateOrder(ctx, orderstransport.CreateOrderRequest{
		CampaignID: campaignID,
		AgentID:    agentID,
		TotalCents: charge.AmountRefunded,
		OrderType:  string(ordersrepo.OrderTypeRefund),
		PaymentID:  &paymentID,
	})
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, event.ID); releaseErr != nil {
			s.log.Error("failed to release idempotency key", "eventId", event.ID, "error", releaseErr.Error())
		}
		return err
	}

	return nil
}

// orderRequestFromIntent maps payment intent metadata onto an order request.
func (s *Service) orderRequestFromIntent(intent stripe.PaymentIntent) (orderstransport.CreateOrderRequest, error) {
	campaignID, agentID, err := requiredIDs(intent.Metadata)
	if err != nil {
		return orderstransport.CreateOrderRequest{}, err
	}

	orderType := intent.Metadata[metaOrderType]
	switch orderType {
	case string(ordersrepo.OrderTypeOneTime), string(ordersrepo.OrderTypeRecurring):
	case "":
		orderType = string(ordersrepo.OrderTypeRecurring)
	default:
		return orderstransport.CreateOrderRequest{}, apperr.BadRequest("unknown order type in payment metadata")
	}

	var leftoverCents int64
	if raw := intent.Metadata[metaLeftoverCents]; raw != "" {
		leftoverCents, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || leftoverCents < 0 {
			return orderstransport.CreateOrderRequest{}, apperr.BadRequest("invalid leftover amount in payment metadata")
		}
	}

	var products []orderstransport.OrderProduct
	if raw := intent.Metadata[metaProducts]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &products); err != nil {
			return orderstransport.CreateOrderRequest{}, apperr.BadRequest("invalid product list in payment metadata")
		}
	}

	paymentID := intent.ID
	return orderstransport.CreateOrderRequest{
		CampaignID:    campaignID,
		AgentID:       agentID,
		TotalCents:    intent.Amount,
		OrderType:     orderType,
		PaymentID:     &paymentID,
		Products:      products,
		LeftoverCents: leftoverCents,
	}, nil
}

func requiredIDs(metadata map[string]string) (uuid.UUID, uuid.UUID, error) {
	campaignID, err := uuid.Parse(metadata[metaCampaignID])
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.BadRequest("missing or invalid campaign id in payment metadata")
	}
	agentID, err := uuid.Parse(metadata[metaAgentID])
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.BadRequest("missing or invalid agent id in payment metadata")
	}
	return campaignID, agentID, nil
}
