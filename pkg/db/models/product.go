package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a purchasable referenced by subscriptions and order line items.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU           string    `gorm:"column:sku;not null;unique"`
	Name          string    `gorm:"column:name;not null"`
	PriceCents    int       `gorm:"column:price_cents;not null"`
	Backorderable bool      `gorm:"column:backorderable;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
