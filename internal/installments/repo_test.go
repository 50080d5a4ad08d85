package installments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/enums"
)

func setupInstallmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  backorderable INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  store TEXT NOT NULL,
  email TEXT NOT NULL,
  currency TEXT NOT NULL,
  state TEXT NOT NULL,
  shipping_address TEXT,
  item_total_cents INTEGER NOT NULL DEFAULT 0,
  ship_total_cents INTEGER NOT NULL DEFAULT 0,
  tax_total_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL DEFAULT 0,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  interval_length INTEGER NOT NULL,
  interval_unit TEXT NOT NULL,
  state TEXT NOT NULL,
  actionable_at DATETIME,
  origin_order_id TEXT NOT NULL,
  canceled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS installments (
  id TEXT PRIMARY KEY,
  subscription_id TEXT NOT NULL,
  actionable_at DATETIME NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS installment_details (
  id TEXT PRIMARY KEY,
  installment_id TEXT NOT NULL,
  successful INTEGER NOT NULL DEFAULT 0,
  message TEXT NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type subscriptionSeed struct {
	state        enums.SubscriptionState
	actionableAt time.Time
}

func seedInstallment(t *testing.T, db *gorm.DB, seed subscriptionSeed) *models.Installment {
	t.Helper()

	customerID := uuid.New()

	product := &models.Product{ID: uuid.New(), SKU: uuid.NewString(), Name: "refill", PriceCents: 1500}
	require.NoError(t, db.Create(product).Error)

	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Store:      "replenish",
		Email:      "sub@example.com",
		Currency:   enums.CurrencyUSD,
		State:      enums.OrderStateComplete,
	}
	require.NoError(t, db.Create(order).Error)

	sub := &models.Subscription{
		ID:             uuid.New(),
		CustomerID:     customerID,
		ProductID:      product.ID,
		Quantity:       2,
		UnitPriceCents: 1500,
		IntervalLength: 1,
		IntervalUnit:   enums.IntervalUnitMonth,
		State:          seed.state,
		ActionableAt:   &seed.actionableAt,
		OriginOrderID:  order.ID,
	}
	require.NoError(t, db.Create(sub).Error)

	inst := &models.Installment{
		ID:             uuid.New(),
		SubscriptionID: sub.ID,
		ActionableAt:   seed.actionableAt,
	}
	require.NoError(t, db.Create(inst).Error)
	return inst
}

func TestFindActionableFiltersAndOrders(t *testing.T) {
	db := setupInstallmentsTestDB(t)
	repo := NewRepository(db)
	now := time.Now()

	older := seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now.Add(-48 * time.Hour)})
	newer := seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now.Add(-1 * time.Hour)})
	seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStatePaused, actionableAt: now.Add(-24 * time.Hour)})
	seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now.Add(24 * time.Hour)})

	rows, err := repo.FindActionable(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, older.ID, rows[0].ID)
	assert.Equal(t, newer.ID, rows[1].ID)

	// Preloads carry the subscription line item data.
	require.NotNil(t, rows[0].Subscription)
	require.NotNil(t, rows[0].Subscription.Product)
	require.NotNil(t, rows[0].Subscription.OriginOrder)
	assert.Equal(t, 2, rows[0].Subscription.Quantity)
}

func TestFindActionableHonorsLimit(t *testing.T) {
	db := setupInstallmentsTestDB(t)
	repo := NewRepository(db)
	now := time.Now()

	for i := 0; i < 3; i++ {
		seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now.Add(-time.Hour)})
	}

	rows, err := repo.FindActionable(context.Background(), now, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRecorderWritesFailureDetails(t *testing.T) {
	db := setupInstallmentsTestDB(t)
	repo := NewRepository(db)
	recorder, err := NewRecorder(repo)
	require.NoError(t, err)

	now := time.Now()
	first := seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now})
	second := seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now})

	err = recorder.RecordFailures(context.Background(), db, []uuid.UUID{first.ID, second.ID}, enums.DetailReasonOutOfStock)
	require.NoError(t, err)

	var details []models.InstallmentDetail
	require.NoError(t, db.Order("installment_id").Find(&details).Error)
	require.Len(t, details, 2)
	for _, detail := range details {
		assert.False(t, detail.Successful)
		assert.Equal(t, "out_of_stock", detail.Message)
	}
}

func TestRecorderNoOpOnEmptySet(t *testing.T) {
	db := setupInstallmentsTestDB(t)
	repo := NewRepository(db)
	recorder, err := NewRecorder(repo)
	require.NoError(t, err)

	require.NoError(t, recorder.RecordFailures(context.Background(), db, nil, enums.DetailReasonCheckoutFailed))

	var count int64
	require.NoError(t, db.Model(&models.InstallmentDetail{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPushActionableAtReschedules(t *testing.T) {
	db := setupInstallmentsTestDB(t)
	repo := NewRepository(db)
	now := time.Now()

	inst := seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now.Add(-time.Hour)})
	retryAt := now.Add(24 * time.Hour)

	require.NoError(t, repo.PushActionableAt(context.Background(), inst.ID, retryAt))

	rows, err := repo.FindActionable(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAdvanceSubscriptionMovesDueDate(t *testing.T) {
	db := setupInstallmentsTestDB(t)
	repo := NewRepository(db)
	now := time.Now()

	inst := seedInstallment(t, db, subscriptionSeed{state: enums.SubscriptionStateActive, actionableAt: now.Add(-time.Hour)})
	next := enums.IntervalUnitMonth.Advance(now, 1)

	require.NoError(t, repo.AdvanceSubscription(context.Background(), inst.SubscriptionID, next))

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "id = ?", inst.SubscriptionID).Error)
	require.NotNil(t, sub.ActionableAt)
	assert.WithinDuration(t, next, *sub.ActionableAt, time.Second)
}
