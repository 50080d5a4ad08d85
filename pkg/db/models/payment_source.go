package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentSource is a stored, reusable payment instrument for a customer.
type PaymentSource struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	GatewayToken string    `gorm:"column:gateway_token;not null"`
	Brand        string    `gorm:"column:brand;not null"`
	Last4        string    `gorm:"column:last4;not null"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
