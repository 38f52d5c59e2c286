package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderType categorizes the payment that funded an order.
type OrderType string

const (
	OrderTypeOneTime   OrderType = "one_time"
	OrderTypeRecurring OrderType = "recurring"
	OrderTypeRefund    OrderType = "refund"
)

// OrderStatus is the lifecycle state of an order. Transitions are
// open -> closed only; closed is terminal.
type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "open"
	OrderStatusClosed OrderStatus = "closed"
)

// PriorityWindow records a distribution priority boost applied to an order.
type PriorityWindow struct {
	DurationDays    int        `json:"durationDays"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Active          bool       `json:"active"`
	PrioritizedBy   *uuid.UUID `json:"prioritizedBy,omitempty"`
	ExternalTaskRef string     `json:"externalTaskRef,omitempty"`
}

// Order is a purchased entitlement to a number of fresh and second-chance
// leads, funded by a single payment.
type Order struct {
	ID                 uuid.UUID
	CampaignID         uuid.UUID
	AgentID            uuid.UUID
	TotalCents         int64
	Type               OrderType
	Status             OrderStatus
	FreshTarget        int
	SecondChanceTarget int
	PaymentID          *string
	Priority           *PriorityWindow
	PriorityHistory    []PriorityWindow
	// Rules is a free-form key/value bag. Known keys are documented where
	// they are consumed; unknown keys are preserved verbatim.
	Rules       map[string]interface{}
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// FulfillmentCounts holds the derived per-leg completion counters for one
// order. They are computed by counting linked lead rows, never stored.
type FulfillmentCounts struct {
	Fresh        int
	SecondChance int
}

// CreateParams carries the fields persisted when inserting a new order.
type CreateParams struct {
	CampaignID         uuid.UUID
	AgentID            uuid.UUID
	TotalCents         int64
	Type               OrderType
	FreshTarget        int
	SecondChanceTarget int
	PaymentID          *string
	Rules              map[string]interface{}
}

// ListParams filters order listings.
type ListParams struct {
	CampaignID *uuid.UUID
	AgentID    *uuid.UUID
	Status     *OrderStatus
	Limit      int
	Offset     int
}

// Repository is the persistence port for orders and their derived
// fulfillment state.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	GetByPaymentID(ctx context.Context, paymentID string) (Order, error)
	List(ctx context.Context, params ListParams) ([]Order, int, error)
	Create(ctx context.Context, params CreateParams) (Order, error)

	// Fulfillment returns the derived per-leg completion counts for an order.
	Fulfillment(ctx context.Context, orderID uuid.UUID) (FulfillmentCounts, error)

	// Close marks an open order closed and stamps the completion time.
	// Closing an already-closed order is a no-op returning the stored row,
	// which keeps the operation idempotent.
	Close(ctx context.Context, orderID uuid.UUID, completedAt time.Time) (Order, error)

	// MostRecentClosed returns the newest closed order for the agent and
	// campaign, or apperr.NotFound when none exists.
	MostRecentClosed(ctx context.Context, agentID, campaignID uuid.UUID) (Order, error)

	// OldestOpenForFresh returns the earliest open order whose fresh target
	// is not yet met. Orders whose fresh leg is complete are excluded even
	// while their second-chance leg keeps the stored status open.
	OldestOpenForFresh(ctx context.Context, agentID, campaignID uuid.UUID) (Order, error)

	// OldestOpenForSecondChance is the second-chance twin of
	// OldestOpenForFresh.
	OldestOpenForSecondChance(ctx context.Context, agentID, campaignID uuid.UUID) (Order, error)

	// LeadVolumeSince sums the lead targets of the agent's campaign orders
	// created on or after the cutoff. Input for daily limit recalculation.
	LeadVolumeSince(ctx context.Context, agentID, campaignID uuid.UUID, since time.Time) (int, error)

	// SetPriority activates a priority window on the order, pushing any
	// previous window onto the priority history.
	SetPriority(ctx context.Context, orderID uuid.UUID, window PriorityWindow) (Order, error)
}
