package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/replenishlabs/replenish-backend/pkg/enums"
	"github.com/replenishlabs/replenish-backend/pkg/types"
)

// Order is the consolidated order a billing run drives through checkout.
type Order struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index"`
	Store           string           `gorm:"column:store;not null"`
	Email           string           `gorm:"column:email;not null"`
	Currency        enums.Currency   `gorm:"column:currency;type:text;not null;default:'USD'"`
	State           enums.OrderState `gorm:"column:state;type:text;not null;default:'cart'"`
	ShippingAddress *types.Address   `gorm:"column:shipping_address;type:address_t"`
	ItemTotalCents  int              `gorm:"column:item_total_cents;not null;default:0"`
	ShipTotalCents  int              `gorm:"column:ship_total_cents;not null;default:0"`
	TaxTotalCents   int              `gorm:"column:tax_total_cents;not null;default:0"`
	TotalCents      int              `gorm:"column:total_cents;not null;default:0"`
	CompletedAt     *time.Time       `gorm:"column:completed_at"`
	Items           []OrderLineItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipments       []Shipment       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments        []Payment        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Completed reports whether checkout ran to the terminal success state.
func (o Order) Completed() bool {
	return o.State == enums.OrderStateComplete
}
