package consolidated

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replenishlabs/replenish-backend/internal/checkout"
	"github.com/replenishlabs/replenish-backend/internal/customers"
	"github.com/replenishlabs/replenish-backend/internal/installments"
	"github.com/replenishlabs/replenish-backend/internal/inventory"
	"github.com/replenishlabs/replenish-backend/internal/orders"
	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/enums"
	pkgerrors "github.com/replenishlabs/replenish-backend/pkg/errors"
	"github.com/replenishlabs/replenish-backend/pkg/logger"
	"github.com/replenishlabs/replenish-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Config carries the run policies the processor applies.
type Config struct {
	Store                  string
	Currency               enums.Currency
	CheckoutFailureDetails bool
	OutOfStockRetry        time.Duration
}

// Params collects everything a processor instance needs. One instance handles
// one customer's batch for one run.
type Params struct {
	Batch     []models.Installment
	Customers customers.Repository
	Orders    orders.Repository
	Schedule  installments.Repository
	Recorder  installments.Recorder
	Inventory inventory.Checker
	Checkout  checkout.Service
	Outbox    outboxPublisher
	Tx        txRunner
	Config    Config
	Logger    *logger.Logger
	Now       func() time.Time
}

// ConsolidatedInstallment consolidates one customer's due installments into a
// single checkout attempt. Instances are single-use: Process refuses a second
// invocation.
type ConsolidatedInstallment struct {
	mu sync.Mutex

	customerID uuid.UUID
	live       []models.Installment

	customers customers.Repository
	orders    orders.Repository
	schedule  installments.Repository
	recorder  installments.Recorder
	inventory inventory.Checker
	checkout  checkout.Service
	outbox    outboxPublisher
	tx        txRunner
	cfg       Config
	logg      *logger.Logger
	now       func() time.Time

	customer  *models.Customer
	root      *models.Order
	order     *models.Order
	processed bool
}

// New validates the batch and builds a processor for it. Every installment
// must carry its subscription, and all subscriptions must belong to the same
// customer.
func New(p Params) (*ConsolidatedInstallment, error) {
	if len(p.Batch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty installment batch")
	}
	if p.Customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Schedule == nil {
		return nil, fmt.Errorf("installments repository required")
	}
	if p.Recorder == nil {
		return nil, fmt.Errorf("detail recorder required")
	}
	if p.Inventory == nil {
		return nil, fmt.Errorf("inventory checker required")
	}
	if p.Checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}

	var customerID uuid.UUID
	for i := range p.Batch {
		sub := p.Batch[i].Subscription
		if sub == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "installment missing subscription")
		}
		if i == 0 {
			customerID = sub.CustomerID
			continue
		}
		if sub.CustomerID != customerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch spans multiple customers")
		}
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}

	live := make([]models.Installment, len(p.Batch))
	copy(live, p.Batch)

	return &ConsolidatedInstallment{
		customerID: customerID,
		live:       live,
		customers:  p.Customers,
		orders:     p.Orders,
		schedule:   p.Schedule,
		recorder:   p.Recorder,
		inventory:  p.Inventory,
		checkout:   p.Checkout,
		outbox:     p.Outbox,
		tx:         p.Tx,
		cfg:        p.Config,
		logg:       p.Logger,
		now:        now,
	}, nil
}

// CustomerID returns the customer this batch belongs to.
func (c *ConsolidatedInstallment) CustomerID() uuid.UUID {
	return c.customerID
}

// Installments returns the still-live subset of the batch: installments not
// yet dropped by the stock filter.
func (c *ConsolidatedInstallment) Installments() []models.Installment {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Installment, len(c.live))
	copy(out, c.live)
	return out
}

// Order builds the consolidated order in memory, at most once. Repeat calls
// return the same order without side effects. Nothing is persisted here.
func (c *ConsolidatedInstallment) Order(ctx context.Context) (*models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildOrder(ctx)
}

// buildOrder is the memoized assembly. Callers hold c.mu.
func (c *ConsolidatedInstallment) buildOrder(ctx context.Context) (*models.Order, error) {
	if c.order != nil {
		return c.order, nil
	}

	customer, err := c.loadCustomer(ctx)
	if err != nil {
		return nil, err
	}

	root, err := c.rootOrder()
	if err != nil {
		return nil, err
	}

	address := ResolveShippingAddress(customer, root)

	order, err := AssembleOrder(customer, root, address, c.live, c.cfg.Store, c.cfg.Currency)
	if err != nil {
		return nil, err
	}

	c.order = order
	return order, nil
}

func (c *ConsolidatedInstallment) loadCustomer(ctx context.Context) (*models.Customer, error) {
	if c.customer != nil {
		return c.customer, nil
	}
	customer, err := c.customers.FindByID(ctx, c.customerID)
	if err != nil {
		return nil, err
	}
	c.customer = customer
	return customer, nil
}

func (c *ConsolidatedInstallment) rootOrder() (*models.Order, error) {
	if c.root != nil {
		return c.root, nil
	}
	root, err := SelectRootOrder(c.live)
	if err != nil {
		return nil, err
	}
	c.root = root
	return root, nil
}

// Process runs the full pipeline: stock filtering, order assembly,
// persistence, and the checkout drive. It returns the resulting order, or a
// nil order with no error when every installment was dropped before assembly.
func (c *ConsolidatedInstallment) Process(ctx context.Context) (*models.Order, error) {
	c.mu.Lock()
	if c.processed {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "batch already processed")
	}
	c.processed = true
	defer c.mu.Unlock()

	if c.logg != nil {
		ctx = c.logg.WithCustomerID(ctx, c.customerID.String())
	}

	dropped, err := c.filterUnfulfillable(ctx)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		if err := c.dropOutOfStock(ctx, dropped); err != nil {
			return nil, err
		}
		// An order assembled before the stock filter still carries the
		// dropped installments' line items. Rebuild them from the live
		// set so dropped installments are never billed.
		if c.order != nil {
			items, err := buildLineItems(c.order.ID, c.live)
			if err != nil {
				return nil, err
			}
			c.order.Items = items
		}
	}

	if len(c.live) == 0 {
		if c.logg != nil {
			c.logg.Info(ctx, "every installment dropped, skipping order")
		}
		return nil, nil
	}

	order, err := c.buildOrder(ctx)
	if err != nil {
		return nil, err
	}

	source, err := ResolvePaymentSource(ctx, c.orders, c.customer, c.root)
	if err != nil {
		return nil, err
	}

	err = c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := c.orders.WithTx(tx).CreateOrder(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	if c.logg != nil {
		ctx = c.logg.WithOrderID(ctx, order.ID.String())
	}

	order, runErr := c.checkout.Run(ctx, order, source)
	if runErr != nil {
		if err := c.recordCheckoutFailure(ctx, order, runErr); err != nil {
			return order, err
		}
		return order, runErr
	}

	if err := c.advanceSubscriptions(ctx); err != nil {
		return order, err
	}

	return order, nil
}

// filterUnfulfillable takes one availability snapshot for the batch's
// products and claims each installment's quantity against it, in batch order.
// Installments that cannot claim are removed from the live set and returned.
func (c *ConsolidatedInstallment) filterUnfulfillable(ctx context.Context) ([]models.Installment, error) {
	productIDs := make([]uuid.UUID, 0, len(c.live))
	seen := make(map[uuid.UUID]bool, len(c.live))
	for i := range c.live {
		id := c.live[i].Subscription.ProductID
		if !seen[id] {
			seen[id] = true
			productIDs = append(productIDs, id)
		}
	}

	snapshot, err := c.inventory.Snapshot(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory snapshot failed")
	}

	var kept, dropped []models.Installment
	for i := range c.live {
		sub := c.live[i].Subscription
		if snapshot.Claim(sub.ProductID, sub.Quantity) {
			kept = append(kept, c.live[i])
		} else {
			dropped = append(dropped, c.live[i])
		}
	}
	c.live = kept
	return dropped, nil
}

// dropOutOfStock records the failure details for dropped installments and
// pushes their due dates forward so a later run retries them. One transaction
// covers the details, the reschedule, and the emitted events.
func (c *ConsolidatedInstallment) dropOutOfStock(ctx context.Context, dropped []models.Installment) error {
	retryAt := c.now().Add(c.cfg.OutOfStockRetry)

	ids := make([]uuid.UUID, 0, len(dropped))
	for i := range dropped {
		ids = append(ids, dropped[i].ID)
	}

	err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.recorder.RecordFailures(ctx, tx, ids, enums.DetailReasonOutOfStock); err != nil {
			return err
		}
		schedule := c.schedule.WithTx(tx)
		for _, id := range ids {
			if err := schedule.PushActionableAt(ctx, id, retryAt); err != nil {
				return err
			}
			if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInstallmentFailed,
				AggregateType: enums.AggregateInstallment,
				AggregateID:   id,
				Data: map[string]any{
					"installmentId": id.String(),
					"customerId":    c.customerID.String(),
					"reason":        enums.DetailReasonOutOfStock.String(),
					"retryAt":       retryAt,
				},
				Version: 1,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if c.logg != nil {
		logCtx := c.logg.WithField(ctx, "dropped", len(dropped))
		c.logg.Warn(logCtx, "installments dropped for stock")
	}
	return nil
}

// recordCheckoutFailure attributes a halted or failed checkout to every
// still-live installment. The order itself stays where checkout left it.
func (c *ConsolidatedInstallment) recordCheckoutFailure(ctx context.Context, order *models.Order, cause error) error {
	if c.logg != nil {
		c.logg.Error(ctx, "checkout did not complete", cause)
	}
	if !c.cfg.CheckoutFailureDetails {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(c.live))
	for i := range c.live {
		ids = append(ids, c.live[i].ID)
	}

	return c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.recorder.RecordFailures(ctx, tx, ids, enums.DetailReasonCheckoutFailed); err != nil {
			return err
		}
		return c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderHalted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: map[string]any{
				"orderId":    order.ID.String(),
				"customerId": c.customerID.String(),
				"state":      order.State.String(),
				"reason":     enums.DetailReasonCheckoutFailed.String(),
			},
			Version: 1,
		})
	})
}

// advanceSubscriptions moves each fulfilled subscription's next due date
// forward by its own interval after a completed order.
func (c *ConsolidatedInstallment) advanceSubscriptions(ctx context.Context) error {
	return c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		schedule := c.schedule.WithTx(tx)
		for i := range c.live {
			sub := c.live[i].Subscription
			base := c.now()
			if sub.ActionableAt != nil && sub.ActionableAt.After(base) {
				base = *sub.ActionableAt
			}
			next := sub.IntervalUnit.Advance(base, sub.IntervalLength)
			if err := schedule.AdvanceSubscription(ctx, sub.ID, next); err != nil {
				return err
			}
		}
		return nil
	})
}
