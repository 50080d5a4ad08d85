package models

import (
	"time"

	"github.com/google/uuid"
)

// Installment is a single scheduled occurrence of a subscription. The row is
// immutable once created; outcomes live on its details.
type Installment struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubscriptionID uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null;index"`
	Subscription   *Subscription       `gorm:"foreignKey:SubscriptionID"`
	ActionableAt   time.Time           `gorm:"column:actionable_at;not null;index"`
	Details        []InstallmentDetail `gorm:"foreignKey:InstallmentID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
