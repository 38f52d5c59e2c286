package transport

import "github.com/google/uuid"

// CreateAgentRequest registers a new lead buyer.
type CreateAgentRequest struct {
	Name             string `json:"name" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"omitempty,max=32"`
	Company          string `json:"company" validate:"omitempty,max=120"`
	DistributionType string `json:"distributionType" validate:"omitempty,oneof=fresh_only second_chance_only mixed"`
	CRMWebhookURL    string `json:"crmWebhookUrl" validate:"omitempty,url"`
	CRMAuthToken     string `json:"crmAuthToken" validate:"omitempty,max=512"`
}

// UpdateAgentRequest updates an existing agent; nil fields are left unchanged.
type UpdateAgentRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Phone            *string `json:"phone" validate:"omitempty,max=32"`
	Company          *string `json:"company" validate:"omitempty,max=120"`
	DistributionType *string `json:"distributionType" validate:"omitempty,oneof=fresh_only second_chance_only mixed"`
	CRMWebhookURL    *string `json:"crmWebhookUrl" validate:"omitempty,url"`
	CRMAuthToken     *string `json:"crmAuthToken" validate:"omitempty,max=512"`
}

// UpsertMembershipRequest enrolls an agent in a campaign or updates the
// enrollment terms. Omitted fields keep their stored values.
type UpsertMembershipRequest struct {
	CampaignID                     uuid.UUID `json:"campaignId" validate:"required"`
	LeadPriceOverrideCents         *int64    `json:"leadPriceOverrideCents" validate:"omitempty,gt=0"`
	SecondChancePriceOverrideCents *int64    `json:"secondChancePriceOverrideCents" validate:"omitempty,gt=0"`
	DailyLeadLimit                 *int      `json:"dailyLeadLimit" validate:"omitempty,gte=0"`
}

// AdjustBalanceRequest credits or debits a membership balance.
type AdjustBalanceRequest struct {
	CampaignID uuid.UUID `json:"campaignId" validate:"required"`
	DeltaCents int64     `json:"deltaCents" validate:"required"`
	Note       string    `json:"note" validate:"omitempty,max=500"`
}

// AgentResponse represents an agent in API responses. The CRM auth token is
// write-only and never echoed back.
type AgentResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Company          string    `json:"company,omitempty"`
	DistributionType string    `json:"distributionType"`
	CRMWebhookURL    string    `json:"crmWebhookUrl,omitempty"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        string    `json:"createdAt"`
	UpdatedAt        string    `json:"updatedAt"`
}

// AgentListResponse wraps a list of agents.
type AgentListResponse struct {
	Items []AgentResponse `json:"items"`
	Total int             `json:"total"`
}

// MembershipResponse represents a campaign membership in API responses.
type MembershipResponse struct {
	AgentID                        uuid.UUID `json:"agentId"`
	CampaignID                     uuid.UUID `json:"campaignId"`
	BalanceCents                   int64     `json:"balanceCents"`
	LeadPriceOverrideCents         *int64    `json:"leadPriceOverrideCents,omitempty"`
	SecondChancePriceOverrideCents *int64    `json:"secondChancePriceOverrideCents,omitempty"`
	DailyLeadLimit                 int       `json:"dailyLeadLimit"`
	CreatedAt                      string    `json:"createdAt"`
	UpdatedAt                      string    `json:"updatedAt"`
}

// MembershipListResponse wraps a list of memberships.
type MembershipListResponse struct {
	Items []MembershipResponse `json:"items"`
	Total int                  `json:"total"`
}

// BalanceResponse reports a membership balance after an adjustment.
type BalanceResponse struct {
	AgentID      uuid.UUID `json:"agentId"`
	CampaignID   uuid.UUID `json:"campaignId"`
	BalanceCents int64     `json:"balanceCents"`
}
