package metrics

import "github.com/prometheus/client_golang/prometheus"

// BillingRunMetrics counts installment and order outcomes per billing cycle.
type BillingRunMetrics struct {
	installments *prometheus.CounterVec
	orders       *prometheus.CounterVec
}

const (
	InstallmentOutcomeProcessed = "processed"
	InstallmentOutcomeFailed    = "failed"

	OrderOutcomeCompleted = "completed"
	OrderOutcomeHalted    = "halted"
)

// NewBillingRunMetrics registers billing run counters on the provided registerer.
func NewBillingRunMetrics(reg prometheus.Registerer) *BillingRunMetrics {
	if reg == nil {
		return &BillingRunMetrics{}
	}
	installments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_installments_total",
		Help: "Installments handled by billing runs, by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_orders_total",
		Help: "Consolidated orders produced by billing runs, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(installments, orders)
	return &BillingRunMetrics{
		installments: installments,
		orders:       orders,
	}
}

// AddInstallments adds n to the installment counter for the given outcome.
func (b *BillingRunMetrics) AddInstallments(outcome string, n int) {
	if b == nil || b.installments == nil || n <= 0 {
		return
	}
	b.installments.WithLabelValues(outcome).Add(float64(n))
}

// IncOrder increments the order counter for the given outcome.
func (b *BillingRunMetrics) IncOrder(outcome string) {
	if b == nil || b.orders == nil {
		return
	}
	b.orders.WithLabelValues(outcome).Inc()
}
