package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replenishlabs/replenish-backend/pkg/db/models"
)

// Snapshot is a point-in-time availability read for a set of products. All
// fulfillment decisions of one billing run draw against the same snapshot, so
// installments competing for the same product see the stock they leave each
// other.
type Snapshot struct {
	available      map[uuid.UUID]int
	backorderable  map[uuid.UUID]bool
	allowBackorder bool
}

// NewSnapshot builds a snapshot from known availability, mainly for callers
// that already hold the counts.
func NewSnapshot(available map[uuid.UUID]int, backorderable map[uuid.UUID]bool, allowBackorder bool) *Snapshot {
	if available == nil {
		available = map[uuid.UUID]int{}
	}
	if backorderable == nil {
		backorderable = map[uuid.UUID]bool{}
	}
	return &Snapshot{
		available:      available,
		backorderable:  backorderable,
		allowBackorder: allowBackorder,
	}
}

// Claim reports whether qty units of the product can be fulfilled and, if so,
// draws them down from the snapshot.
func (s *Snapshot) Claim(productID uuid.UUID, qty int) bool {
	if s == nil || qty <= 0 {
		return false
	}
	if s.backorderable[productID] || s.allowBackorder {
		return true
	}
	if s.available[productID] < qty {
		return false
	}
	s.available[productID] -= qty
	return true
}

// Checker produces availability snapshots.
type Checker interface {
	Snapshot(ctx context.Context, productIDs []uuid.UUID) (*Snapshot, error)
}

type checker struct {
	db             *gorm.DB
	allowBackorder bool
}

// NewChecker builds an inventory checker bound to the provided DB.
func NewChecker(db *gorm.DB, allowBackorder bool) Checker {
	return &checker{db: db, allowBackorder: allowBackorder}
}

func (c *checker) Snapshot(ctx context.Context, productIDs []uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{
		available:      make(map[uuid.UUID]int, len(productIDs)),
		backorderable:  make(map[uuid.UUID]bool, len(productIDs)),
		allowBackorder: c.allowBackorder,
	}
	if len(productIDs) == 0 {
		return snap, nil
	}

	var items []models.InventoryItem
	if err := c.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		snap.available[item.ProductID] = item.Available()
	}

	var products []models.Product
	if err := c.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}
	for _, product := range products {
		snap.backorderable[product.ID] = product.Backorderable
	}

	return snap, nil
}
