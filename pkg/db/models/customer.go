package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/replenishlabs/replenish-backend/pkg/types"
)

// Customer is the billing profile consolidated orders are built for.
type Customer struct {
	ID                     uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email                  string         `gorm:"column:email;not null;unique"`
	DefaultShippingAddress *types.Address `gorm:"column:default_shipping_address;type:address_t"`
	DefaultPaymentSourceID *uuid.UUID     `gorm:"column:default_payment_source_id;type:uuid"`
	DefaultPaymentSource   *PaymentSource `gorm:"foreignKey:DefaultPaymentSourceID"`
	CreatedAt              time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
