// Package crm delivers sold leads to the buying agent's CRM over HTTP.
// Delivery runs on the durable task queue so a slow or broken CRM endpoint
// never affects the sale itself.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	agentsrepo "leadmarket_backend/internal/agents/repository"
	leadsrepo "leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/platform/logger"
)

const pushTimeout = 15 * time.Second

// LeadReader loads the lead being delivered.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
}

// AgentReader loads the destination agent's CRM settings.
type AgentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (agentsrepo.Agent, error)
}

// leadDelivery is the JSON body posted to the agent's CRM endpoint.
type leadDelivery struct {
	LeadID       string            `json:"leadId"`
	CampaignID   string            `json:"campaignId"`
	OrderID      string            `json:"orderId"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	State        string            `json:"state"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	SecondChance bool              `json:"secondChance"`
	SoldAt       string            `json:"soldAt"`
}

// Pusher posts sold leads to agent CRM endpoints. Outbound requests are rate
// limited per destination host so one import burst cannot flood an agent's
// system.
type Pusher struct {
	leads   LeadReader
	agents  AgentReader
	client  *http.Client
	limiter *hostLimiter
	log     *logger.Logger
}

// NewPusher creates the CRM pusher.
func NewPusher(leads LeadReader, agents AgentReader, log *logger.Logger) *Pusher {
	return &Pusher{
		leads:   leads,
		agents:  agents,
		client:  &http.Client{Timeout: pushTimeout},
		limiter: newHostLimiter(),
		log:     log,
	}
}

// PushLead delivers one sold lead. A returned error requeues the task for
// retry; agents without a CRM endpoint are skipped silently.
func (p *Pusher) PushLead(ctx context.Context, payload scheduler.CRMPushLeadPayload) error {
	agentID, err := uuid.Parse(payload.AgentID)
	if err != nil {
		return fmt.Errorf("parse agent id: %w", err)
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("parse lead id: %w", err)
	}

	agent, err := p.agents.GetByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("load agent: %w", err)
	}
	if agent.CRMWebhookURL == "" {
		p.log.Debug("agent has no crm endpoint, skipping delivery", "agentId", agent.ID)
		return nil
	}

	lead, err := p.leads.GetByID(ctx, leadID)
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}

	soldAt := lead.SoldAt
	if payload.SecondChance {
		soldAt = lead.SecondChanceSoldAt
	}
	var soldAtStr string
	if soldAt != nil {
		soldAtStr = soldAt.UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(leadDelivery{
		LeadID:       lead.ID.String(),
		CampaignID:   payload.CampaignID,
		OrderID:      payload.OrderID,
		FirstName:    lead.FirstName,
		LastName:     lead.LastName,
		Email:        lead.Email,
		Phone:        lead.Phone,
		State:        lead.State,
		CustomFields: lead.CustomFields,
		SecondChance: payload.SecondChance,
		SoldAt:       soldAtStr,
	})
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}

	if err := p.limiter.wait(ctx, agent.CRMWebhookURL); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agent.CRMWebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if agent.CRMAuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+agent.CRMAuthToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post lead to crm: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("crm endpoint returned status %d", resp.StatusCode)
	}

	p.log.Info("lead delivered to crm",
		"leadId", lead.ID, "agentId", agent.ID, "secondChance", payload.SecondChance)
	return nil
}

// Compile-time check that Pusher implements scheduler.LeadPusher.
var _ scheduler.LeadPusher = (*Pusher)(nil)
