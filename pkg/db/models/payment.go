package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/replenishlabs/replenish-backend/pkg/enums"
)

// Payment is one capture attempt against an order. PaymentSourceID is nil for
// zero-total orders that complete without touching the gateway.
type Payment struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	PaymentSourceID  *uuid.UUID         `gorm:"column:payment_source_id;type:uuid"`
	PaymentSource    *PaymentSource     `gorm:"foreignKey:PaymentSourceID"`
	AmountCents      int                `gorm:"column:amount_cents;not null"`
	State            enums.PaymentState `gorm:"column:state;type:text;not null;default:'checkout'"`
	GatewayCaptureID *string            `gorm:"column:gateway_capture_id"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
