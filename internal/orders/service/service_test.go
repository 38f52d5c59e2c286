package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/orders/repository"
	"leadmarket_backend/internal/orders/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

// fakeRepo is an in-memory repository.Repository for orchestrator tests. The
// open/closed lookup results are set directly by each test.
type fakeRepo struct {
	mu sync.Mutex

	orders           map[uuid.UUID]repository.Order
	fulfillment      map[uuid.UUID]repository.FulfillmentCounts
	recentClosed     *repository.Order
	openFresh        *repository.Order
	openSecondChance *repository.Order
	leadVolume       int

	created []repository.CreateParams
	closed  []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:      make(map[uuid.UUID]repository.Order),
		fulfillment: make(map[uuid.UUID]repository.FulfillmentCounts),
	}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return repository.Order{}, apperr.NotFound("order not found")
	}
	return order, nil
}

func (f *fakeRepo) GetByPaymentID(_ context.Context, paymentID string) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.PaymentID != nil && *order.PaymentID == paymentID {
			return order, nil
		}
	}
	return repository.Order{}, apperr.NotFound("order not found")
}

func (f *fakeRepo) List(_ context.Context, _ repository.ListParams) ([]repository.Order, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	order := repository.Order{
		ID:                 uuid.New(),
		CampaignID:         params.CampaignID,
		AgentID:            params.AgentID,
		TotalCents:         params.TotalCents,
		Type:               params.Type,
		Status:             repository.OrderStatusOpen,
		FreshTarget:        params.FreshTarget,
		SecondChanceTarget: params.SecondChanceTarget,
		PaymentID:          params.PaymentID,
		Rules:              params.Rules,
		CreatedAt:          time.Now().UTC(),
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeRepo) Fulfillment(_ context.Context, orderID uuid.UUID) (repository.FulfillmentCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fulfillment[orderID], nil
}

func (f *fakeRepo) Close(_ context.Context, orderID uuid.UUID, completedAt time.Time) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return repository.Order{}, apperr.NotFound("order not found")
	}
	if order.Status == repository.OrderStatusClosed {
		return order, nil
	}
	order.Status = repository.OrderStatusClosed
	order.CompletedAt = &completedAt
	f.orders[orderID] = order
	f.closed = append(f.closed, orderID)
	return order, nil
}

func (f *fakeRepo) MostRecentClosed(_ context.Context, _, _ uuid.UUID) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recentClosed == nil {
		return repository.Order{}, apperr.NotFound("no closed order")
	}
	return *f.recentClosed, nil
}

func (f *fakeRepo) OldestOpenForFresh(_ context.Context, _, _ uuid.UUID) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openFresh == nil {
		return repository.Order{}, apperr.NotFound("no open order")
	}
	return *f.openFresh, nil
}

func (f *fakeRepo) OldestOpenForSecondChance(_ context.Context, _, _ uuid.UUID) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openSecondChance == nil {
		return repository.Order{}, apperr.NotFound("no open order")
	}
	return *f.openSecondChance, nil
}

func (f *fakeRepo) LeadVolumeSince(_ context.Context, _, _ uuid.UUID, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leadVolume, nil
}

func (f *fakeRepo) SetPriority(_ context.Context, orderID uuid.UUID, window repository.PriorityWindow) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return repository.Order{}, apperr.NotFound("order not found")
	}
	if order.Priority != nil {
		previous := *order.Priority
		previous.Active = false
		order.PriorityHistory = append(order.PriorityHistory, previous)
	}
	order.Priority = &window
	f.orders[orderID] = order
	return order, nil
}

// fakeDirectory implements CampaignReader and AgentDirectory.
type fakeDirectory struct {
	mu sync.Mutex

	campaign   CampaignPricing
	agent      AgentProfile
	membership Membership

	limitWrites []int
}

func (f *fakeDirectory) GetPricing(_ context.Context, _ uuid.UUID) (CampaignPricing, error) {
	return f.campaign, nil
}

func (f *fakeDirectory) GetProfile(_ context.Context, _ uuid.UUID) (AgentProfile, error) {
	return f.agent, nil
}

func (f *fakeDirectory) GetMembership(_ context.Context, _, _ uuid.UUID) (Membership, error) {
	return f.membership, nil
}

func (f *fakeDirectory) SetDailyLeadLimit(_ context.Context, _, _ uuid.UUID, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limitWrites = append(f.limitWrites, limit)
	return nil
}

func (f *fakeDirectory) lastLimit(t *testing.T) int {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.limitWrites) == 0 {
		t.Fatal("expected a daily limit write")
	}
	return f.limitWrites[len(f.limitWrites)-1]
}

// fixedRecalc returns a constant recalculated limit.
type fixedRecalc struct {
	limit int
}

func (r fixedRecalc) Recalculate(_ context.Context, _, _ uuid.UUID, _ repository.Order) (int, error) {
	return r.limit, nil
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

func (b *captureBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, len(b.events))
	copy(out, b.events)
	return out
}

func newTestService(repo *fakeRepo, dir *fakeDirectory, recalc LimitRecalculator, bus events.Bus) *Service {
	if recalc == nil {
		recalc = fixedRecalc{}
	}
	if bus == nil {
		bus = &captureBus{}
	}
	return NewService(repo, dir, dir, recalc, bus, logger.New("development"), 10)
}

func defaultDirectory() *fakeDirectory {
	return &fakeDirectory{
		campaign: CampaignPricing{
			ID:                        uuid.New(),
			Name:                      "Solar NL",
			PricePerLeadCents:         500,
			PricePerSecondChanceCents: 250,
		},
		agent: AgentProfile{
			ID:               uuid.New(),
			Name:             "Testbuyer",
			DistributionType: DistributionMixed,
		},
		membership: Membership{DailyLeadLimit: 25},
	}
}

func createRequest(orderType string, totalCents int64) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		CampaignID: uuid.New(),
		AgentID:    uuid.New(),
		TotalCents: totalCents,
		OrderType:  orderType,
	}
}

func TestCreateOrderComputesMixedTargetsFromTotal(t *testing.T) {
	repo := newFakeRepo()
	dir := defaultDirectory()
	bus := &captureBus{}
	svc := newTestService(repo, dir, nil, bus)

	order, err := svc.CreateOrder(context.Background(), createRequest("recurring", 10000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 16 || order.SecondChanceTarget != 8 {
		t.Fatalf("expected targets (16, 8), got (%d, %d)", order.FreshTarget, order.SecondChanceTarget)
	}
	if order.Status != repository.OrderStatusOpen {
		t.Fatalf("expected new order open, got %s", order.Status)
	}

	published := bus.published()
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	created, ok := published[0].(events.OrderCreated)
	if !ok {
		t.Fatalf("expected OrderCreated, got %T", published[0])
	}
	if created.OrderID != order.ID || created.FreshTarget != 16 {
		t.Fatalf("event does not match order: %+v", created)
	}
}

func TestCreateOrderFromProductQuantities(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, defaultDirectory(), nil, nil)

	req := createRequest("one_time", 5000)
	req.Products = []transport.OrderProduct{{Name: ProductFreshLead, Quantity: 10}}

	order, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 10 || order.SecondChanceTarget != 0 {
		t.Fatalf("expected targets (10, 0), got (%d, %d)", order.FreshTarget, order.SecondChanceTarget)
	}
}

func TestCreateOrderRejectsNegativeProductQuantity(t *testing.T) {
	// Product quantities from payment metadata skip the HTTP validator, so
	// the service itself must refuse them before anything is persisted.
	repo := newFakeRepo()
	svc := newTestService(repo, defaultDirectory(), nil, nil)

	req := createRequest("one_time", 5000)
	req.Products = []transport.OrderProduct{{Name: ProductFreshLead, Quantity: -5}}

	_, err := svc.CreateOrder(context.Background(), req)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no order persisted, got %d", len(repo.created))
	}
}

func TestCreateOrderAppliesLeftoverAfterClosedCycle(t *testing.T) {
	repo := newFakeRepo()
	closed := repository.Order{ID: uuid.New(), Status: repository.OrderStatusClosed}
	repo.recentClosed = &closed

	svc := newTestService(repo, defaultDirectory(), nil, nil)

	req := createRequest("recurring", 10000)
	req.LeftoverCents = 1200

	order, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Base mixed targets (16, 8) plus the sequential leftover draw (2, 0).
	if order.FreshTarget != 18 || order.SecondChanceTarget != 8 {
		t.Fatalf("expected targets (18, 8), got (%d, %d)", order.FreshTarget, order.SecondChanceTarget)
	}
}

func TestCreateOrderSkipsLeftoverWhileOrderStillOpen(t *testing.T) {
	repo := newFakeRepo()
	closed := repository.Order{ID: uuid.New(), Status: repository.OrderStatusClosed}
	open := repository.Order{ID: uuid.New(), Status: repository.OrderStatusOpen, FreshTarget: 5}
	repo.recentClosed = &closed
	repo.openFresh = &open

	svc := newTestService(repo, defaultDirectory(), nil, nil)

	req := createRequest("recurring", 10000)
	req.LeftoverCents = 1200

	order, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 16 || order.SecondChanceTarget != 8 {
		t.Fatalf("expected leftover skipped, got (%d, %d)", order.FreshTarget, order.SecondChanceTarget)
	}
}

func TestCreateOrderSkipsLeftoverWithoutPriorClosedOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, defaultDirectory(), nil, nil)

	req := createRequest("recurring", 10000)
	req.LeftoverCents = 1200

	order, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.FreshTarget != 16 || order.SecondChanceTarget != 8 {
		t.Fatalf("expected leftover skipped, got (%d, %d)", order.FreshTarget, order.SecondChanceTarget)
	}
}

func TestCreateOrderDailyLimitFreshCycleUsesDefaultFloor(t *testing.T) {
	repo := newFakeRepo()
	dir := defaultDirectory()
	svc := newTestService(repo, dir, fixedRecalc{limit: 3}, nil)

	if _, err := svc.CreateOrder(context.Background(), createRequest("recurring", 10000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Recalculated 3 is below the default of 10.
	if got := dir.lastLimit(t); got != 10 {
		t.Fatalf("expected limit 10, got %d", got)
	}
}

func TestCreateOrderDailyLimitMidCycleKeepsExistingFloor(t *testing.T) {
	repo := newFakeRepo()
	open := repository.Order{ID: uuid.New(), Status: repository.OrderStatusOpen}
	repo.openSecondChance = &open

	dir := defaultDirectory()
	dir.membership.DailyLeadLimit = 25
	svc := newTestService(repo, dir, fixedRecalc{limit: 12}, nil)

	if _, err := svc.CreateOrder(context.Background(), createRequest("recurring", 10000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A mid-cycle top-up never lowers the agent's current limit.
	if got := dir.lastLimit(t); got != 25 {
		t.Fatalf("expected limit 25, got %d", got)
	}
}

func TestCreateOrderDailyLimitTakesRecalculatedWhenHigher(t *testing.T) {
	repo := newFakeRepo()
	dir := defaultDirectory()
	svc := newTestService(repo, dir, fixedRecalc{limit: 40}, nil)

	if _, err := svc.CreateOrder(context.Background(), createRequest("recurring", 10000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := dir.lastLimit(t); got != 40 {
		t.Fatalf("expected limit 40, got %d", got)
	}
}

func TestCreateOrderSerializesPerAgentCampaign(t *testing.T) {
	repo := newFakeRepo()
	closed := repository.Order{ID: uuid.New(), Status: repository.OrderStatusClosed}
	repo.recentClosed = &closed
	svc := newTestService(repo, defaultDirectory(), nil, nil)

	req := createRequest("recurring", 10000)
	req.LeftoverCents = 1200

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateOrder(context.Background(), req); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(repo.created) != 8 {
		t.Fatalf("expected 8 orders, got %d", len(repo.created))
	}
}

func TestCancelOrderClosesOpenOrder(t *testing.T) {
	repo := newFakeRepo()
	bus := &captureBus{}
	svc := newTestService(repo, defaultDirectory(), nil, bus)

	order, err := svc.CreateOrder(context.Background(), createRequest("recurring", 10000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := svc.CancelOrder(context.Background(), order.ID, "chargeback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != repository.OrderStatusClosed {
		t.Fatalf("expected cancelled order closed, got %s", cancelled.Status)
	}

	var sawCancelled bool
	for _, event := range bus.published() {
		if e, ok := event.(events.OrderCancelled); ok {
			sawCancelled = true
			if e.Reason != "chargeback" {
				t.Fatalf("expected reason carried on event, got %q", e.Reason)
			}
		}
	}
	if !sawCancelled {
		t.Fatal("expected OrderCancelled event")
	}
}

func TestCancelOrderRejectsClosedOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, defaultDirectory(), nil, nil)

	order, err := svc.CreateOrder(context.Background(), createRequest("recurring", 10000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CancelOrder(context.Background(), order.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.CancelOrder(context.Background(), order.ID, "")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for double cancel, got %v", err)
	}
}
