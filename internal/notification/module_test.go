package notification

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"

	campaignsrepo "leadmarket_backend/internal/campaigns/repository"
	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/logger"
)

type fakeCampaignReader struct {
	campaign campaignsrepo.Campaign
}

func (f *fakeCampaignReader) GetByID(_ context.Context, _ uuid.UUID) (campaignsrepo.Campaign, error) {
	return f.campaign, nil
}

type recordingSender struct {
	mu        sync.Mutex
	created   []string
	cancelled []string
	imported  []string
	err       error
}

func (r *recordingSender) SendOrderCreatedEmail(_ context.Context, to string, _ email.OrderCreatedData) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, to)
	return nil
}

func (r *recordingSender) SendOrderCancelledEmail(_ context.Context, to string, _ email.OrderCancelledData) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, to)
	return nil
}

func (r *recordingSender) SendImportCompletedEmail(_ context.Context, to string, _ email.ImportCompletedData) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported = append(r.imported, to)
	return nil
}

func newTestModule(sender *recordingSender, adminEmails []string) *Module {
	campaigns := &fakeCampaignReader{campaign: campaignsrepo.Campaign{
		ID:          uuid.New(),
		Name:        "Solar NL",
		AdminEmails: adminEmails,
	}}
	return NewModule(sender, campaigns, logger.New("development"))
}

func TestOrderCreatedEmailsAllAdmins(t *testing.T) {
	sender := &recordingSender{}
	m := newTestModule(sender, []string{"a@example.com", "b@example.com"})

	err := m.Handle(context.Background(), events.OrderCreated{
		BaseEvent:  events.NewBaseEvent(),
		OrderID:    uuid.New(),
		CampaignID: uuid.New(),
		AgentID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.created) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.created))
	}
	slices.Sort(sender.created)
	if sender.created[0] != "a@example.com" || sender.created[1] != "b@example.com" {
		t.Fatalf("unexpected recipients: %v", sender.created)
	}
}

func TestOrderCancelledEmailsAdmins(t *testing.T) {
	sender := &recordingSender{}
	m := newTestModule(sender, []string{"a@example.com"})

	err := m.Handle(context.Background(), events.OrderCancelled{
		BaseEvent:  events.NewBaseEvent(),
		OrderID:    uuid.New(),
		CampaignID: uuid.New(),
		Reason:     "chargeback",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.cancelled) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.cancelled))
	}
}

func TestLeadsImportedEmailsAdmins(t *testing.T) {
	sender := &recordingSender{}
	m := newTestModule(sender, []string{"a@example.com"})

	err := m.Handle(context.Background(), events.LeadsImported{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: uuid.New(),
		Imported:   10,
		Skipped:    2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.imported) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.imported))
	}
}

func TestSendFailureDoesNotFailHandler(t *testing.T) {
	sender := &recordingSender{err: fmt.Errorf("smtp unavailable")}
	m := newTestModule(sender, []string{"a@example.com"})

	err := m.Handle(context.Background(), events.OrderCreated{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected send failures to be swallowed, got %v", err)
	}
}
