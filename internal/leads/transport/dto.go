package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeadRequest captures a single inbound lead.
type CreateLeadRequest struct {
	CampaignID uuid.UUID         `json:"campaignId" validate:"required"`
	FirstName  string            `json:"firstName" validate:"required_without=LastName,max=80"`
	LastName   string            `json:"lastName" validate:"required_without=FirstName,max=80"`
	Email      string            `json:"email" validate:"required,email"`
	Phone      string            `json:"phone" validate:"omitempty,max=32"`
	State      string            `json:"state" validate:"omitempty,len=2"`
	Origin     string            `json:"origin" validate:"omitempty,max=80"`
	Custom     map[string]string `json:"custom,omitempty"`
}

// SellLeadRequest assigns a lead to an agent's oldest eligible open order.
type SellLeadRequest struct {
	AgentID    uuid.UUID `json:"agentId" validate:"required"`
	CampaignID uuid.UUID `json:"campaignId" validate:"required"`
}

// ListLeadsRequest filters lead listings.
type ListLeadsRequest struct {
	CampaignID *uuid.UUID `form:"campaignId"`
	Unsold     bool       `form:"unsold"`
	Page       int        `form:"page"`
	PageSize   int        `form:"pageSize"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID                  uuid.UUID         `json:"id"`
	CampaignID          uuid.UUID         `json:"campaignId"`
	FirstName           string            `json:"firstName"`
	LastName            string            `json:"lastName"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone,omitempty"`
	State               string            `json:"state,omitempty"`
	Origin              string            `json:"origin,omitempty"`
	Custom              map[string]string `json:"custom,omitempty"`
	BuyerID             *uuid.UUID        `json:"buyerId,omitempty"`
	SecondChanceBuyerID *uuid.UUID        `json:"secondChanceBuyerId,omitempty"`
	FreshOrderID        *uuid.UUID        `json:"freshOrderId,omitempty"`
	SecondChanceOrderID *uuid.UUID        `json:"secondChanceOrderId,omitempty"`
	SoldAt              *time.Time        `json:"soldAt,omitempty"`
	SecondChanceSoldAt  *time.Time        `json:"secondChanceSoldAt,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
}

// LeadListResponse wraps a list of leads.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}
