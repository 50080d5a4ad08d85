package models

import (
	"time"

	"github.com/google/uuid"
)

// InstallmentDetail is an append-only outcome record for one processing
// attempt of an installment. Message carries a machine-readable reason code.
type InstallmentDetail struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InstallmentID uuid.UUID `gorm:"column:installment_id;type:uuid;not null;index"`
	Successful    bool      `gorm:"column:successful;not null;default:false"`
	Message       string    `gorm:"column:message;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
