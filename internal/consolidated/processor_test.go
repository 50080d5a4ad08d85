package consolidated

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replenishlabs/replenish-backend/internal/customers"
	"github.com/replenishlabs/replenish-backend/internal/installments"
	"github.com/replenishlabs/replenish-backend/internal/inventory"
	"github.com/replenishlabs/replenish-backend/internal/orders"
	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/enums"
	pkgerrors "github.com/replenishlabs/replenish-backend/pkg/errors"
	"github.com/replenishlabs/replenish-backend/pkg/outbox"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxSink struct {
	events []outbox.DomainEvent
}

func (o *stubOutboxSink) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	o.events = append(o.events, event)
	return nil
}

type stubCustomersRepo struct {
	customer *models.Customer
	calls    int
}

func (r *stubCustomersRepo) WithTx(tx *gorm.DB) customers.Repository { return r }

func (r *stubCustomersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	r.calls++
	if r.customer == nil || r.customer.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return r.customer, nil
}

type stubOrdersRepo struct {
	created           []*models.Order
	latestUsable      *models.Payment
	latestUsableCalls int
}

func (r *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return r }

func (r *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	r.created = append(r.created, order)
	return order, nil
}

func (r *stubOrdersRepo) CreateOrderLineItems(ctx context.Context, items []models.OrderLineItem) error {
	return nil
}

func (r *stubOrdersRepo) CreateShipment(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	return shipment, nil
}

func (r *stubOrdersRepo) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	return payment, nil
}

func (r *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (r *stubOrdersRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return nil
}

func (r *stubOrdersRepo) UpdatePayment(ctx context.Context, paymentID uuid.UUID, updates map[string]any) error {
	return nil
}

func (r *stubOrdersRepo) FindLatestUsablePayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	r.latestUsableCalls++
	return r.latestUsable, nil
}

type stubScheduleRepo struct {
	pushed   map[uuid.UUID]time.Time
	advanced map[uuid.UUID]time.Time
}

func newStubScheduleRepo() *stubScheduleRepo {
	return &stubScheduleRepo{
		pushed:   map[uuid.UUID]time.Time{},
		advanced: map[uuid.UUID]time.Time{},
	}
}

func (r *stubScheduleRepo) WithTx(tx *gorm.DB) installments.Repository { return r }

func (r *stubScheduleRepo) FindActionable(ctx context.Context, before time.Time, limit int) ([]models.Installment, error) {
	return nil, nil
}

func (r *stubScheduleRepo) CreateDetails(ctx context.Context, details []models.InstallmentDetail) error {
	return nil
}

func (r *stubScheduleRepo) PushActionableAt(ctx context.Context, installmentID uuid.UUID, to time.Time) error {
	r.pushed[installmentID] = to
	return nil
}

func (r *stubScheduleRepo) AdvanceSubscription(ctx context.Context, subscriptionID uuid.UUID, to time.Time) error {
	r.advanced[subscriptionID] = to
	return nil
}

type recordedFailure struct {
	ids    []uuid.UUID
	reason enums.DetailReason
}

type stubRecorder struct {
	failures []recordedFailure
}

func (r *stubRecorder) RecordFailures(ctx context.Context, tx *gorm.DB, installmentIDs []uuid.UUID, reason enums.DetailReason) error {
	ids := make([]uuid.UUID, len(installmentIDs))
	copy(ids, installmentIDs)
	r.failures = append(r.failures, recordedFailure{ids: ids, reason: reason})
	return nil
}

type stubInventory struct {
	snapshot *inventory.Snapshot
	calls    int
}

func (c *stubInventory) Snapshot(ctx context.Context, productIDs []uuid.UUID) (*inventory.Snapshot, error) {
	c.calls++
	return c.snapshot, nil
}

type stubCheckout struct {
	run     func(order *models.Order, source *models.PaymentSource) (*models.Order, error)
	calls   int
	sources []*models.PaymentSource
}

func (s *stubCheckout) Run(ctx context.Context, order *models.Order, source *models.PaymentSource) (*models.Order, error) {
	s.calls++
	s.sources = append(s.sources, source)
	if s.run != nil {
		return s.run(order, source)
	}
	completedAt := time.Now()
	order.State = enums.OrderStateComplete
	order.CompletedAt = &completedAt
	return order, nil
}

type fixture struct {
	customer  *models.Customer
	customers *stubCustomersRepo
	orders    *stubOrdersRepo
	schedule  *stubScheduleRepo
	recorder  *stubRecorder
	inventory *stubInventory
	checkout  *stubCheckout
	outbox    *stubOutboxSink
	now       time.Time
}

func newFixture() *fixture {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	customer := &models.Customer{ID: uuid.New(), Email: "buyer@example.com", DefaultShippingAddress: customerAddress()}
	return &fixture{
		customer:  customer,
		customers: &stubCustomersRepo{customer: customer},
		orders:    &stubOrdersRepo{},
		schedule:  newStubScheduleRepo(),
		recorder:  &stubRecorder{},
		inventory: &stubInventory{snapshot: inventory.NewSnapshot(nil, nil, true)},
		checkout:  &stubCheckout{},
		outbox:    &stubOutboxSink{},
		now:       now,
	}
}

func (f *fixture) params(batch []models.Installment, cfg Config) Params {
	if cfg.Store == "" {
		cfg.Store = "replenish"
	}
	if cfg.Currency == "" {
		cfg.Currency = enums.CurrencyUSD
	}
	return Params{
		Batch:     batch,
		Customers: f.customers,
		Orders:    f.orders,
		Schedule:  f.schedule,
		Recorder:  f.recorder,
		Inventory: f.inventory,
		Checkout:  f.checkout,
		Outbox:    f.outbox,
		Tx:        stubTx{},
		Config:    cfg,
		Now:       func() time.Time { return f.now },
	}
}

func (f *fixture) batch(n int) []models.Installment {
	root := &models.Order{ID: uuid.New(), Store: "origin-store", CreatedAt: f.now.Add(-30 * 24 * time.Hour)}
	batch := make([]models.Installment, 0, n)
	for i := 0; i < n; i++ {
		inst := installmentWithOrigin(f.customer.ID, root)
		due := f.now.Add(-time.Hour)
		inst.Subscription.ActionableAt = &due
		inst.Subscription.IntervalLength = 1
		inst.Subscription.IntervalUnit = enums.IntervalUnitMonth
		batch = append(batch, inst)
	}
	return batch
}

func TestNewRejectsBadBatches(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := New(f.params(nil, Config{}))
	if err == nil {
		t.Fatal("empty batch accepted")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s", code)
	}

	mixed := f.batch(1)
	other := installmentWithOrigin(uuid.New(), nil)
	mixed = append(mixed, other)
	_, err = New(f.params(mixed, Config{}))
	if err == nil {
		t.Fatal("cross-customer batch accepted")
	}

	bare := f.batch(1)
	bare[0].Subscription = nil
	if _, err := New(f.params(bare, Config{})); err == nil {
		t.Fatal("installment without subscription accepted")
	}
}

func TestProcessCompletesConsolidatedOrder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	batch := f.batch(2)

	proc, err := New(f.params(batch, Config{CheckoutFailureDetails: true}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	order, err := proc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if order == nil || !order.Completed() {
		t.Fatalf("order = %+v, want completed", order)
	}

	if len(f.orders.created) != 1 {
		t.Fatalf("orders created = %d, want 1", len(f.orders.created))
	}
	if got := f.orders.created[0]; got.Store != "origin-store" || got.Email != "buyer@example.com" {
		t.Fatalf("persisted order = store %q email %q", got.Store, got.Email)
	}
	if len(order.Items) != 2 {
		t.Fatalf("line items = %d, want one per installment", len(order.Items))
	}

	if len(f.recorder.failures) != 0 {
		t.Fatalf("failure details written on success: %+v", f.recorder.failures)
	}

	// Each subscription's due date moves forward by its own interval.
	if len(f.schedule.advanced) != 2 {
		t.Fatalf("subscriptions advanced = %d, want 2", len(f.schedule.advanced))
	}
	want := enums.IntervalUnitMonth.Advance(f.now, 1)
	for subID, next := range f.schedule.advanced {
		if !next.Equal(want) {
			t.Fatalf("subscription %s advanced to %s, want %s", subID, next, want)
		}
	}
}

func TestProcessDropsOutOfStockAndRedrives(t *testing.T) {
	t.Parallel()

	f := newFixture()
	batch := f.batch(2)
	fulfillable := batch[0].Subscription.ProductID
	f.inventory.snapshot = inventory.NewSnapshot(map[uuid.UUID]int{fulfillable: 1}, nil, false)

	retry := 24 * time.Hour
	proc, err := New(f.params(batch, Config{OutOfStockRetry: retry}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	order, err := proc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("line items = %d, want only the fulfillable installment", len(order.Items))
	}
	if order.Items[0].ProductID != fulfillable {
		t.Fatalf("line item product = %s, want %s", order.Items[0].ProductID, fulfillable)
	}

	if len(f.recorder.failures) != 1 {
		t.Fatalf("failure records = %d, want 1", len(f.recorder.failures))
	}
	failure := f.recorder.failures[0]
	if failure.reason != enums.DetailReasonOutOfStock {
		t.Fatalf("reason = %s", failure.reason)
	}
	if len(failure.ids) != 1 || failure.ids[0] != batch[1].ID {
		t.Fatalf("failed ids = %v, want [%s]", failure.ids, batch[1].ID)
	}

	pushedTo, ok := f.schedule.pushed[batch[1].ID]
	if !ok {
		t.Fatal("dropped installment not rescheduled")
	}
	if !pushedTo.Equal(f.now.Add(retry)) {
		t.Fatalf("rescheduled to %s, want %s", pushedTo, f.now.Add(retry))
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventInstallmentFailed {
		t.Fatalf("outbox events = %+v", f.outbox.events)
	}

	live := proc.Installments()
	if len(live) != 1 || live[0].ID != batch[0].ID {
		t.Fatalf("live = %d installments, want the fulfillable one", len(live))
	}
}

func TestProcessAllDroppedBuildsNoOrder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	batch := f.batch(2)
	f.inventory.snapshot = inventory.NewSnapshot(nil, nil, false)

	proc, err := New(f.params(batch, Config{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	order, err := proc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if order != nil {
		t.Fatalf("order = %+v, want nil", order)
	}

	if len(f.recorder.failures) != 1 || len(f.recorder.failures[0].ids) != 2 {
		t.Fatalf("failure records = %+v, want one covering both", f.recorder.failures)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("order persisted despite empty live set")
	}
	if f.checkout.calls != 0 {
		t.Fatal("checkout driven despite empty live set")
	}
}

func TestProcessSecondCallConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	proc, err := New(f.params(f.batch(1), Config{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := proc.Process(context.Background()); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	createdAfterFirst := len(f.orders.created)

	_, err = proc.Process(context.Background())
	if err == nil {
		t.Fatal("second Process succeeded")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeStateConflict)
	}
	if len(f.orders.created) != createdAfterFirst || f.checkout.calls != 1 {
		t.Fatal("second Process performed side effects")
	}
}

func TestProcessHaltedCheckoutWritesSharedDetail(t *testing.T) {
	t.Parallel()

	f := newFixture()
	batch := f.batch(2)
	haltErr := pkgerrors.New(pkgerrors.CodeValidation, "order has no shipping address")
	f.checkout.run = func(order *models.Order, source *models.PaymentSource) (*models.Order, error) {
		order.State = enums.OrderStateAddress
		return order, haltErr
	}

	proc, err := New(f.params(batch, Config{CheckoutFailureDetails: true}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	order, err := proc.Process(context.Background())
	if err == nil {
		t.Fatal("expected the checkout error")
	}
	if order == nil || order.State != enums.OrderStateAddress {
		t.Fatalf("order = %+v, want halted at address", order)
	}

	if len(f.recorder.failures) != 1 {
		t.Fatalf("failure records = %d, want 1", len(f.recorder.failures))
	}
	failure := f.recorder.failures[0]
	if failure.reason != enums.DetailReasonCheckoutFailed {
		t.Fatalf("reason = %s", failure.reason)
	}
	if len(failure.ids) != 2 {
		t.Fatalf("detail ids = %d, want every live installment", len(failure.ids))
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderHalted {
		t.Fatalf("outbox events = %+v", f.outbox.events)
	}

	if len(f.schedule.advanced) != 0 {
		t.Fatal("subscriptions advanced despite halted checkout")
	}
}

func TestProcessHaltedCheckoutDetailFlagOff(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.checkout.run = func(order *models.Order, source *models.PaymentSource) (*models.Order, error) {
		order.State = enums.OrderStatePayment
		return order, pkgerrors.New(pkgerrors.CodeValidation, "no usable payment source")
	}

	proc, err := New(f.params(f.batch(1), Config{CheckoutFailureDetails: false}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := proc.Process(context.Background()); err == nil {
		t.Fatal("expected the checkout error")
	}
	if len(f.recorder.failures) != 0 {
		t.Fatalf("details written with the flag off: %+v", f.recorder.failures)
	}
}

func TestOrderIsMemoizedAndSideEffectFree(t *testing.T) {
	t.Parallel()

	f := newFixture()
	proc, err := New(f.params(f.batch(2), Config{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := proc.Order(context.Background())
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	second, err := proc.Order(context.Background())
	if err != nil {
		t.Fatalf("Order again: %v", err)
	}
	if first != second {
		t.Fatal("Order rebuilt on repeat call")
	}
	if f.customers.calls != 1 {
		t.Fatalf("customer loaded %d times, want 1", f.customers.calls)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("Order persisted something")
	}
}

func TestProcessAfterEarlyOrderExcludesDroppedItems(t *testing.T) {
	t.Parallel()

	f := newFixture()
	batch := f.batch(2)
	fulfillable := batch[0].Subscription.ProductID
	f.inventory.snapshot = inventory.NewSnapshot(map[uuid.UUID]int{fulfillable: 1}, nil, false)

	proc, err := New(f.params(batch, Config{OutOfStockRetry: 24 * time.Hour}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Assembling the order before Process must not freeze the line items
	// past the stock filter.
	early, err := proc.Order(context.Background())
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if len(early.Items) != 2 {
		t.Fatalf("pre-filter line items = %d, want the full batch", len(early.Items))
	}

	order, err := proc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if order != early {
		t.Fatal("Process rebuilt the order instead of reusing the memoized one")
	}
	if len(order.Items) != 1 {
		t.Fatalf("checked-out line items = %d, want only the fulfillable installment", len(order.Items))
	}
	if order.Items[0].ProductID != fulfillable {
		t.Fatalf("line item product = %s, want %s", order.Items[0].ProductID, fulfillable)
	}

	if len(f.orders.created) != 1 || len(f.orders.created[0].Items) != 1 {
		t.Fatal("persisted order still carries the dropped installment's line item")
	}
	if len(f.schedule.advanced) != 1 {
		t.Fatalf("subscriptions advanced = %d, want only the billed one", len(f.schedule.advanced))
	}
}

func TestProcessPassesResolvedSourceToCheckout(t *testing.T) {
	t.Parallel()

	f := newFixture()
	source := &models.PaymentSource{ID: uuid.New(), GatewayToken: "tok-default", Active: true}
	f.customer.DefaultPaymentSource = source

	proc, err := New(f.params(f.batch(1), Config{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := proc.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(f.checkout.sources) != 1 || f.checkout.sources[0] == nil || f.checkout.sources[0].ID != source.ID {
		t.Fatalf("checkout got source %+v, want the customer default", f.checkout.sources)
	}
}
