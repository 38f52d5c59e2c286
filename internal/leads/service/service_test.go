package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/repository"
	ordersrepo "leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

// fakeRepo is an in-memory repository.Repository mirroring the SQL link
// guards.
type fakeRepo struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]repository.Lead
	soldDay int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeRepo) add(lead repository.Lead) repository.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	f.leads[lead.ID] = lead
	return lead
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.ListParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Lead, error) {
	return f.add(repository.Lead{
		CampaignID:   params.CampaignID,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		Phone:        params.Phone,
		State:        params.State,
		Origin:       params.Origin,
		CustomFields: params.CustomFields,
	}), nil
}

func (f *fakeRepo) CreateBatch(ctx context.Context, params []repository.CreateParams) (int, error) {
	for _, p := range params {
		if _, err := f.Create(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(params), nil
}

func (f *fakeRepo) FindByName(_ context.Context, campaignID uuid.UUID, lastName string) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var results []repository.Lead
	for _, lead := range f.leads {
		if lead.CampaignID == campaignID && lastName != "" && lead.LastName != "" &&
			lead.LastName[0]|0x20 == lastName[0]|0x20 {
			results = append(results, lead)
		}
	}
	return results, nil
}

func (f *fakeRepo) LinkFresh(_ context.Context, leadID, orderID, buyerID uuid.UUID, soldAt time.Time) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if lead.FreshOrderID != nil {
		return repository.Lead{}, apperr.Conflict("lead already sold")
	}
	lead.BuyerID = &buyerID
	lead.FreshOrderID = &orderID
	lead.SoldAt = &soldAt
	f.leads[leadID] = lead
	return lead, nil
}

func (f *fakeRepo) LinkSecondChance(_ context.Context, leadID, orderID, buyerID uuid.UUID, soldAt time.Time) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if lead.SecondChanceOrderID != nil || (lead.BuyerID != nil && *lead.BuyerID == buyerID) {
		return repository.Lead{}, apperr.Conflict("lead not eligible for second chance sale")
	}
	lead.SecondChanceBuyerID = &buyerID
	lead.SecondChanceOrderID = &orderID
	lead.SecondChanceSoldAt = &soldAt
	f.leads[leadID] = lead
	return lead, nil
}

func (f *fakeRepo) SoldTodayCount(_ context.Context, _, _ uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.soldDay, nil
}

// fakeOrderBook serves fixed open orders and records close checks.
type fakeOrderBook struct {
	openFresh        *ordersrepo.Order
	openSecondChance *ordersrepo.Order
	closeChecks      []uuid.UUID
}

func (f *fakeOrderBook) OldestOpenForFresh(_ context.Context, _, _ uuid.UUID) (ordersrepo.Order, error) {
	if f.openFresh == nil {
		return ordersrepo.Order{}, apperr.NotFound("no open order")
	}
	return *f.openFresh, nil
}

func (f *fakeOrderBook) OldestOpenForSecondChance(_ context.Context, _, _ uuid.UUID) (ordersrepo.Order, error) {
	if f.openSecondChance == nil {
		return ordersrepo.Order{}, apperr.NotFound("no open order")
	}
	return *f.openSecondChance, nil
}

func (f *fakeOrderBook) CheckAndClose(_ context.Context, orderID uuid.UUID) (ordersrepo.Order, error) {
	f.closeChecks = append(f.closeChecks, orderID)
	return ordersrepo.Order{ID: orderID}, nil
}

type fakeLimits struct {
	limit int
}

func (f fakeLimits) DailyLeadLimit(_ context.Context, _, _ uuid.UUID) (int, error) {
	return f.limit, nil
}

// captureBus records published events synchronously.
type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *captureBus) Subscribe(_ string, _ events.Handler) {}

func newTestService(repo *fakeRepo, orders *fakeOrderBook, limit int, bus events.Bus) *Service {
	if bus == nil {
		bus = &captureBus{}
	}
	return New(repo, orders, fakeLimits{limit: limit}, bus, logger.New("development"))
}

func TestSellFreshLinksOldestOpenOrder(t *testing.T) {
	repo := newFakeRepo()
	campaignID := uuid.New()
	agentID := uuid.New()
	lead := repo.add(repository.Lead{CampaignID: campaignID, FirstName: "Jane", LastName: "Doe"})

	order := ordersrepo.Order{ID: uuid.New(), AgentID: agentID, CampaignID: campaignID, FreshTarget: 5}
	orders := &fakeOrderBook{openFresh: &order}
	bus := &captureBus{}
	svc := newTestService(repo, orders, 0, bus)

	sold, err := svc.SellFresh(context.Background(), lead.ID, agentID, campaignID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sold.FreshOrderID == nil || *sold.FreshOrderID != order.ID {
		t.Fatalf("expected lead linked to order %s", order.ID)
	}
	if sold.BuyerID == nil || *sold.BuyerID != agentID {
		t.Fatal("expected buyer recorded")
	}
	if len(orders.closeChecks) != 1 || orders.closeChecks[0] != order.ID {
		t.Fatalf("expected close check on order, got %v", orders.closeChecks)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.events))
	}
	soldEvent, ok := bus.events[0].(events.LeadSold)
	if !ok {
		t.Fatalf("expected LeadSold, got %T", bus.events[0])
	}
	if soldEvent.SecondChance {
		t.Fatal("expected fresh sale event")
	}
}

func TestSellFreshWithoutOpenOrderConflicts(t *testing.T) {
	repo := newFakeRepo()
	lead := repo.add(repository.Lead{CampaignID: uuid.New()})
	svc := newTestService(repo, &fakeOrderBook{}, 0, nil)

	_, err := svc.SellFresh(context.Background(), lead.ID, uuid.New(), lead.CampaignID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict without open order, got %v", err)
	}
}

func TestSellFreshTwiceConflicts(t *testing.T) {
	repo := newFakeRepo()
	campaignID := uuid.New()
	lead := repo.add(repository.Lead{CampaignID: campaignID})
	order := ordersrepo.Order{ID: uuid.New(), CampaignID: campaignID, FreshTarget: 5}
	svc := newTestService(repo, &fakeOrderBook{openFresh: &order}, 0, nil)

	if _, err := svc.SellFresh(context.Background(), lead.ID, uuid.New(), campaignID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.SellFresh(context.Background(), lead.ID, uuid.New(), campaignID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on second fresh sale, got %v", err)
	}
}

func TestSellSecondChanceRejectsFreshBuyer(t *testing.T) {
	repo := newFakeRepo()
	campaignID := uuid.New()
	freshBuyer := uuid.New()
	lead := repo.add(repository.Lead{CampaignID: campaignID, BuyerID: &freshBuyer})

	order := ordersrepo.Order{ID: uuid.New(), CampaignID: campaignID, SecondChanceTarget: 5}
	svc := newTestService(repo, &fakeOrderBook{openSecondChance: &order}, 0, nil)

	_, err := svc.SellSecondChance(context.Background(), lead.ID, freshBuyer, campaignID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict reselling to fresh buyer, got %v", err)
	}

	// A different agent may buy the second chance.
	otherAgent := uuid.New()
	sold, err := svc.SellSecondChance(context.Background(), lead.ID, otherAgent, campaignID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sold.SecondChanceBuyerID == nil || *sold.SecondChanceBuyerID != otherAgent {
		t.Fatal("expected second chance buyer recorded")
	}
}

func TestSellEnforcesDailyLimit(t *testing.T) {
	repo := newFakeRepo()
	repo.soldDay = 10
	campaignID := uuid.New()
	lead := repo.add(repository.Lead{CampaignID: campaignID})
	order := ordersrepo.Order{ID: uuid.New(), CampaignID: campaignID, FreshTarget: 5}
	svc := newTestService(repo, &fakeOrderBook{openFresh: &order}, 10, nil)

	_, err := svc.SellFresh(context.Background(), lead.ID, uuid.New(), campaignID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict at daily limit, got %v", err)
	}
}

func TestSellZeroLimitMeansUnlimited(t *testing.T) {
	repo := newFakeRepo()
	repo.soldDay = 1000
	campaignID := uuid.New()
	lead := repo.add(repository.Lead{CampaignID: campaignID})
	order := ordersrepo.Order{ID: uuid.New(), CampaignID: campaignID, FreshTarget: 5}
	svc := newTestService(repo, &fakeOrderBook{openFresh: &order}, 0, nil)

	if _, err := svc.SellFresh(context.Background(), lead.ID, uuid.New(), campaignID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateRejectsFuzzyDuplicate(t *testing.T) {
	repo := newFakeRepo()
	campaignID := uuid.New()
	repo.add(repository.Lead{CampaignID: campaignID, FirstName: "John", LastName: "Smith"})
	svc := newTestService(repo, &fakeOrderBook{}, 0, nil)

	_, err := svc.Create(context.Background(), repository.CreateParams{
		CampaignID: campaignID,
		FirstName:  "Jon",
		LastName:   "Smith",
		Email:      "jon@example.com",
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for near-identical name, got %v", err)
	}

	// Same name in another campaign is a different lead.
	if _, err := svc.Create(context.Background(), repository.CreateParams{
		CampaignID: uuid.New(),
		FirstName:  "Jon",
		LastName:   "Smith",
		Email:      "jon@example.com",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
