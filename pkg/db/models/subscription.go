package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/replenishlabs/replenish-backend/pkg/enums"
)

// Subscription is a recurring purchase of one product for one customer. Its
// installments inherit the product, quantity, and unit price recorded here.
type Subscription struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;index"`
	ProductID      uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	Product        *Product                `gorm:"foreignKey:ProductID"`
	Quantity       int                     `gorm:"column:quantity;not null"`
	UnitPriceCents int                     `gorm:"column:unit_price_cents;not null"`
	IntervalLength int                     `gorm:"column:interval_length;not null"`
	IntervalUnit   enums.IntervalUnit      `gorm:"column:interval_unit;type:text;not null;default:'month'"`
	State          enums.SubscriptionState `gorm:"column:state;type:text;not null;default:'active'"`
	ActionableAt   *time.Time              `gorm:"column:actionable_at;index"`
	OriginOrderID  uuid.UUID               `gorm:"column:origin_order_id;type:uuid;not null"`
	OriginOrder    *Order                  `gorm:"foreignKey:OriginOrderID"`
	CanceledAt     *time.Time              `gorm:"column:canceled_at"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
