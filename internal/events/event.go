// Package events defines the domain events exchanged between modules.
package events

import (
	"github.com/google/uuid"
)

// =============================================================================
// Orders Domain Events
// =============================================================================

// OrderCreated is published after an order has been persisted for a payment.
// The notification module emails campaign administrators; failures there never
// roll back the order.
type OrderCreated struct {
	BaseEvent
	OrderID            uuid.UUID `json:"orderId"`
	CampaignID         uuid.UUID `json:"campaignId"`
	AgentID            uuid.UUID `json:"agentId"`
	AgentName          string    `json:"agentName"`
	OrderType          string    `json:"orderType"`
	TotalCents         int64     `json:"totalCents"`
	FreshTarget        int       `json:"freshTarget"`
	SecondChanceTarget int       `json:"secondChanceTarget"`
}

func (e OrderCreated) EventName() string { return "orders.order.created" }

// OrderClosed is published when an order reaches both fulfillment targets.
type OrderClosed struct {
	BaseEvent
	OrderID    uuid.UUID `json:"orderId"`
	CampaignID uuid.UUID `json:"campaignId"`
	AgentID    uuid.UUID `json:"agentId"`
}

func (e OrderClosed) EventName() string { return "orders.order.closed" }

// OrderCancelled is published when an administrator cancels an order.
type OrderCancelled struct {
	BaseEvent
	OrderID    uuid.UUID `json:"orderId"`
	CampaignID uuid.UUID `json:"campaignId"`
	AgentID    uuid.UUID `json:"agentId"`
	AgentName  string    `json:"agentName"`
	TotalCents int64     `json:"totalCents"`
	Reason     string    `json:"reason,omitempty"`
}

func (e OrderCancelled) EventName() string { return "orders.order.cancelled" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadSold is published after a lead has been linked to an order. The CRM
// module enqueues outbound delivery to the buying agent's CRM; delivery is
// fully decoupled from fulfillment counting.
type LeadSold struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	OrderID      uuid.UUID `json:"orderId"`
	CampaignID   uuid.UUID `json:"campaignId"`
	AgentID      uuid.UUID `json:"agentId"`
	SecondChance bool      `json:"secondChance"`
}

func (e LeadSold) EventName() string { return "leads.lead.sold" }

// LeadsImported is published after a CSV import batch has been persisted.
type LeadsImported struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	Origin     string    `json:"origin"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
}

func (e LeadsImported) EventName() string { return "leads.import.completed" }
