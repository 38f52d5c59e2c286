package transport

import "github.com/google/uuid"

// CreateCampaignRequest creates a new campaign.
type CreateCampaignRequest struct {
	Name                      string   `json:"name" validate:"required,min=2,max=120"`
	Description               string   `json:"description" validate:"max=2000"`
	PricePerLeadCents         int64    `json:"pricePerLeadCents" validate:"required,gt=0"`
	PricePerSecondChanceCents int64    `json:"pricePerSecondChanceCents" validate:"required,gt=0"`
	AdminEmails               []string `json:"adminEmails" validate:"omitempty,dive,email"`
}

// UpdateCampaignRequest updates an existing campaign; nil fields are left
// unchanged.
type UpdateCampaignRequest struct {
	Name                      *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Description               *string  `json:"description" validate:"omitempty,max=2000"`
	PricePerLeadCents         *int64   `json:"pricePerLeadCents" validate:"omitempty,gt=0"`
	PricePerSecondChanceCents *int64   `json:"pricePerSecondChanceCents" validate:"omitempty,gt=0"`
	AdminEmails               []string `json:"adminEmails" validate:"omitempty,dive,email"`
}

// CampaignResponse represents a campaign in API responses.
type CampaignResponse struct {
	ID                        uuid.UUID `json:"id"`
	Name                      string    `json:"name"`
	Description               string    `json:"description,omitempty"`
	PricePerLeadCents         int64     `json:"pricePerLeadCents"`
	PricePerSecondChanceCents int64     `json:"pricePerSecondChanceCents"`
	AdminEmails               []string  `json:"adminEmails,omitempty"`
	IsActive                  bool      `json:"isActive"`
	CreatedAt                 string    `json:"createdAt"`
	UpdatedAt                 string    `json:"updatedAt"`
}

// CampaignListResponse wraps a list of campaigns.
type CampaignListResponse struct {
	Items []CampaignResponse `json:"items"`
	Total int                `json:"total"`
}
