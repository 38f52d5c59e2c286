package transport

import (
	"time"

	"github.com/google/uuid"
)

// OrderProduct is one line item of a one-time checkout: a product name and a
// lead quantity. Accepted names are "Fresh Lead", "Aged Lead" and
// "Second Chance Lead".
type OrderProduct struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest carries everything needed to create an order for a
// completed payment. The billing webhook builds it from the gateway event;
// administrators can submit it directly.
type CreateOrderRequest struct {
	CampaignID    uuid.UUID              `json:"campaignId" validate:"required"`
	AgentID       uuid.UUID              `json:"agentId" validate:"required"`
	TotalCents    int64                  `json:"totalCents" validate:"gte=0"`
	OrderType     string                 `json:"orderType" validate:"required,oneof=one_time recurring refund"`
	PaymentID     *string                `json:"paymentId,omitempty"`
	Products      []OrderProduct         `json:"products,omitempty" validate:"omitempty,dive"`
	LeftoverCents int64                  `json:"leftoverCents" validate:"gte=0"`
	Rules         map[string]interface{} `json:"rules,omitempty"`
}

// ListOrdersRequest filters order listings.
type ListOrdersRequest struct {
	CampaignID *uuid.UUID `form:"campaignId"`
	AgentID    *uuid.UUID `form:"agentId"`
	Status     string     `form:"status" validate:"omitempty,oneof=open closed"`
	Page       int        `form:"page"`
	PageSize   int        `form:"pageSize"`
}

// PriorityRequest activates a distribution priority window on an order.
type PriorityRequest struct {
	DurationDays    int    `json:"durationDays" validate:"required,min=1"`
	ExternalTaskRef string `json:"externalTaskRef,omitempty"`
}

// PriorityWindowResponse mirrors a stored priority window.
type PriorityWindowResponse struct {
	DurationDays    int        `json:"durationDays"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Active          bool       `json:"active"`
	PrioritizedBy   *uuid.UUID `json:"prioritizedBy,omitempty"`
	ExternalTaskRef string     `json:"externalTaskRef,omitempty"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID                 uuid.UUID                `json:"id"`
	CampaignID         uuid.UUID                `json:"campaignId"`
	AgentID            uuid.UUID                `json:"agentId"`
	TotalCents         int64                    `json:"totalCents"`
	OrderType          string                   `json:"orderType"`
	Status             string                   `json:"status"`
	FreshTarget        int                      `json:"freshTarget"`
	SecondChanceTarget int                      `json:"secondChanceTarget"`
	PaymentID          *string                  `json:"paymentId,omitempty"`
	Priority           *PriorityWindowResponse  `json:"priority,omitempty"`
	PriorityHistory    []PriorityWindowResponse `json:"priorityHistory,omitempty"`
	Rules              map[string]interface{}   `json:"rules,omitempty"`
	CreatedAt          string                   `json:"createdAt"`
	CompletedAt        *string                  `json:"completedAt,omitempty"`
}

// OrderListResponse wraps a list of orders.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Total int             `json:"total"`
}

// FulfillmentResponse reports derived fulfillment progress for an order.
type FulfillmentResponse struct {
	OrderID               uuid.UUID `json:"orderId"`
	Status                string    `json:"status"`
	FreshTarget           int       `json:"freshTarget"`
	FreshCompleted        int       `json:"freshCompleted"`
	SecondChanceTarget    int       `json:"secondChanceTarget"`
	SecondChanceCompleted int       `json:"secondChanceCompleted"`
}
