package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/replenishlabs/replenish-backend/pkg/enums"
)

// Shipment is the delivery leg attached to an order at the delivery state.
type Shipment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	CostCents int                 `gorm:"column:cost_cents;not null;default:0"`
	State     enums.ShipmentState `gorm:"column:state;type:text;not null;default:'pending'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
