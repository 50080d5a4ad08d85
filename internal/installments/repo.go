package installments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/enums"
)

// Repository defines persistence operations for installments and their
// subscriptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActionable(ctx context.Context, before time.Time, limit int) ([]models.Installment, error)
	CreateDetails(ctx context.Context, details []models.InstallmentDetail) error
	PushActionableAt(ctx context.Context, installmentID uuid.UUID, to time.Time) error
	AdvanceSubscription(ctx context.Context, subscriptionID uuid.UUID, to time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an installments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindActionable returns due installments of active subscriptions, oldest due
// date first, with the subscription line-item data preloaded.
func (r *repository) FindActionable(ctx context.Context, before time.Time, limit int) ([]models.Installment, error) {
	var rows []models.Installment
	query := r.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Where("installments.actionable_at <= ?", before).
		Where("subscriptions.state = ?", enums.SubscriptionStateActive).
		Preload("Subscription").
		Preload("Subscription.Product").
		Preload("Subscription.OriginOrder").
		Order("installments.actionable_at ASC").
		Order("installments.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateDetails(ctx context.Context, details []models.InstallmentDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

// PushActionableAt reschedules an installment, e.g. after an out-of-stock
// drop, so a later run picks it up again.
func (r *repository) PushActionableAt(ctx context.Context, installmentID uuid.UUID, to time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("id = ?", installmentID).
		Update("actionable_at", to).Error
}

// AdvanceSubscription moves the subscription's next due date forward after a
// successful order.
func (r *repository) AdvanceSubscription(ctx context.Context, subscriptionID uuid.UUID, to time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Update("actionable_at", to).Error
}
