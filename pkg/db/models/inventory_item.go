package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks on-hand and reserved stock per product.
type InventoryItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	OnHandCount   int       `gorm:"column:on_hand_count;not null;default:0"`
	ReservedCount int       `gorm:"column:reserved_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Available is the sellable count after reservations.
func (i InventoryItem) Available() int {
	return i.OnHandCount - i.ReservedCount
}
