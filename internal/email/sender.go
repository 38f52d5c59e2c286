// Package email renders and delivers transactional email over SMTP.
package email

import "context"

// Sender delivers campaign administration email.
type Sender interface {
	SendOrderCreatedEmail(ctx context.Context, toEmail string, data OrderCreatedData) error
	SendOrderCancelledEmail(ctx context.Context, toEmail string, data OrderCancelledData) error
	SendImportCompletedEmail(ctx context.Context, toEmail string, data ImportCompletedData) error
}

// OrderCreatedData carries the fields rendered into the new-order email.
type OrderCreatedData struct {
	CampaignName       string
	AgentName          string
	OrderType          string
	TotalCents         int64
	FreshTarget        int
	SecondChanceTarget int
}

// OrderCancelledData carries the fields rendered into the cancellation email.
type OrderCancelledData struct {
	CampaignName string
	AgentName    string
	TotalCents   int64
	Reason       string
}

// ImportCompletedData carries the fields rendered into the import summary email.
type ImportCompletedData struct {
	CampaignName string
	Origin       string
	Imported     int
	Skipped      int
}

// NoopSender is used when SMTP is not configured. Sends succeed silently.
type NoopSender struct{}

func (NoopSender) SendOrderCreatedEmail(context.Context, string, OrderCreatedData) error {
	return nil
}

func (NoopSender) SendOrderCancelledEmail(context.Context, string, OrderCancelledData) error {
	return nil
}

func (NoopSender) SendImportCompletedEmail(context.Context, string, ImportCompletedData) error {
	return nil
}

var _ Sender = NoopSender{}
