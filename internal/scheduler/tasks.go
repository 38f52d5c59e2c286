// Package scheduler provides the asynq task queue used for work that must
// survive process restarts and be retried with backoff, such as outbound CRM
// delivery of sold leads.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskCRMPushLead delivers a sold lead to the buying agent's CRM endpoint.
const TaskCRMPushLead = "crm.push_lead"

// CRMPushLeadPayload identifies the sale to deliver.
type CRMPushLeadPayload struct {
	LeadID       string `json:"leadId"`
	AgentID      string `json:"agentId"`
	CampaignID   string `json:"campaignId"`
	OrderID      string `json:"orderId"`
	SecondChance bool   `json:"secondChance"`
}

func NewCRMPushLeadTask(payload CRMPushLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCRMPushLead, data), nil
}

func ParseCRMPushLeadPayload(task *asynq.Task) (CRMPushLeadPayload, error) {
	var payload CRMPushLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CRMPushLeadPayload{}, err
	}
	return payload, nil
}
