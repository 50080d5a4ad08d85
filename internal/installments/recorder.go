package installments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/enums"
)

// Recorder writes per-installment outcome details. Success is implicit: only
// unsuccessful outcomes produce rows.
type Recorder interface {
	RecordFailures(ctx context.Context, tx *gorm.DB, installmentIDs []uuid.UUID, reason enums.DetailReason) error
}

type recorder struct {
	repo Repository
}

// NewRecorder builds a detail recorder over the installments repository.
func NewRecorder(repo Repository) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("installments repository required")
	}
	return &recorder{repo: repo}, nil
}

func (r *recorder) RecordFailures(ctx context.Context, tx *gorm.DB, installmentIDs []uuid.UUID, reason enums.DetailReason) error {
	if len(installmentIDs) == 0 {
		return nil
	}
	details := make([]models.InstallmentDetail, 0, len(installmentIDs))
	for _, id := range installmentIDs {
		details = append(details, models.InstallmentDetail{
			ID:            uuid.New(),
			InstallmentID: id,
			Successful:    false,
			Message:       reason.String(),
		})
	}
	return r.repo.WithTx(tx).CreateDetails(ctx, details)
}
