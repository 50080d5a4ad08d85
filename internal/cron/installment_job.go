package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/replenishlabs/replenish-backend/internal/consolidated"
	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/logger"
	"github.com/replenishlabs/replenish-backend/pkg/metrics"
)

// actionableReader finds due installments for a cycle.
type actionableReader interface {
	FindActionable(ctx context.Context, before time.Time, limit int) ([]models.Installment, error)
}

// batchProcessor is one customer's consolidated attempt.
type batchProcessor interface {
	CustomerID() uuid.UUID
	Process(ctx context.Context) (*models.Order, error)
	Installments() []models.Installment
}

// processorFactory builds a single-use processor for one customer's batch.
type processorFactory func(batch []models.Installment) (batchProcessor, error)

// NewProcessorFactory adapts the consolidated constructor into the factory
// the billing job consumes. Template carries every field except the batch.
func NewProcessorFactory(template consolidated.Params) processorFactory {
	return func(batch []models.Installment) (batchProcessor, error) {
		params := template
		params.Batch = batch
		return consolidated.New(params)
	}
}

// BillingRunJobParams configure the billing run job.
type BillingRunJobParams struct {
	Logger    *logger.Logger
	Schedule  actionableReader
	Factory   processorFactory
	Metrics   *metrics.BillingRunMetrics
	BatchSize int
	Now       func() time.Time
}

// NewBillingRunJob builds the cron job that consolidates due installments
// into per-customer checkout attempts.
func NewBillingRunJob(params BillingRunJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Schedule == nil {
		return nil, fmt.Errorf("installments reader required")
	}
	if params.Factory == nil {
		return nil, fmt.Errorf("processor factory required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &billingRunJob{
		logg:      params.Logger,
		schedule:  params.Schedule,
		factory:   params.Factory,
		metrics:   params.Metrics,
		batchSize: params.BatchSize,
		now:       now,
	}, nil
}

type billingRunJob struct {
	logg      *logger.Logger
	schedule  actionableReader
	factory   processorFactory
	metrics   *metrics.BillingRunMetrics
	batchSize int
	now       func() time.Time
}

func (j *billingRunJob) Name() string { return "billing-run" }

func (j *billingRunJob) Run(ctx context.Context) error {
	due, err := j.schedule.FindActionable(ctx, j.now().UTC(), j.batchSize)
	if err != nil {
		return fmt.Errorf("query actionable installments: %w", err)
	}
	if len(due) == 0 {
		j.logg.Info(ctx, "no actionable installments")
		return nil
	}

	batches := groupByCustomer(due)

	var errs []error
	for _, batch := range batches {
		if err := j.processBatch(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"installments": len(due),
		"customers":    len(batches),
		"failures":     len(errs),
	})
	j.logg.Info(logCtx, "billing run complete")
	return multierr.Combine(errs...)
}

// processBatch drives one customer's consolidated attempt. A failure here is
// reported upward but never aborts the other customers in the cycle.
func (j *billingRunJob) processBatch(ctx context.Context, batch []models.Installment) error {
	proc, err := j.factory(batch)
	if err != nil {
		return fmt.Errorf("build processor: %w", err)
	}

	batchCtx := j.logg.WithCustomerID(ctx, proc.CustomerID().String())

	order, err := proc.Process(batchCtx)
	live := proc.Installments()
	dropped := len(batch) - len(live)
	j.countInstallments(metrics.InstallmentOutcomeFailed, dropped)

	if err != nil {
		j.countInstallments(metrics.InstallmentOutcomeFailed, len(live))
		j.incOrder(metrics.OrderOutcomeHalted)
		return fmt.Errorf("process customer %s: %w", proc.CustomerID(), err)
	}

	if order == nil {
		// Every installment was dropped before assembly; already counted.
		return nil
	}

	j.countInstallments(metrics.InstallmentOutcomeProcessed, len(live))
	j.incOrder(metrics.OrderOutcomeCompleted)
	return nil
}

// groupByCustomer splits the due installments into per-customer batches,
// preserving the due-date ordering both across batches and inside each one.
func groupByCustomer(due []models.Installment) [][]models.Installment {
	index := make(map[uuid.UUID]int)
	var batches [][]models.Installment
	for i := range due {
		sub := due[i].Subscription
		if sub == nil {
			continue
		}
		pos, ok := index[sub.CustomerID]
		if !ok {
			pos = len(batches)
			index[sub.CustomerID] = pos
			batches = append(batches, nil)
		}
		batches[pos] = append(batches[pos], due[i])
	}
	return batches
}

func (j *billingRunJob) countInstallments(outcome string, n int) {
	if j.metrics == nil {
		return
	}
	j.metrics.AddInstallments(outcome, n)
}

func (j *billingRunJob) incOrder(outcome string) {
	if j.metrics == nil {
		return
	}
	j.metrics.IncOrder(outcome)
}
