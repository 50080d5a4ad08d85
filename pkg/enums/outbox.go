package enums

// OutboxEventType identifies the domain event stored in the outbox.
type OutboxEventType string

const (
	EventOrderCompleted    OutboxEventType = "billing.order.completed"
	EventOrderHalted       OutboxEventType = "billing.order.halted"
	EventInstallmentFailed OutboxEventType = "billing.installment.failed"
)

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateInstallment OutboxAggregateType = "installment"
)
