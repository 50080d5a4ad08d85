package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// Config carries the pricing knobs the driver applies at the delivery and
// confirm states.
type Config struct {
	TaxRate          decimal.Decimal
	ShipmentFeeCents int
}

// Service drives a persisted order through the checkout states. Each
// transition commits on its own: a failed precondition leaves the order
// exactly where it stopped, with every earlier step's effects intact.
type Service interface {
	Run(ctx context.Context, order *models.Order, source *models.PaymentSource) (*models.Order, error)
}

type service struct {
	tx      txRunner
	repo    orders.Repository
	gateway PaymentGateway
	outbox  outboxPublisher
	cfg     Config
	logg    *logger.Logger
}

// NewService builds the checkout driver.
func NewService(
	tx txRunner,
	repo orders.Repository,
	gateway PaymentGateway,
	publisher outboxPublisher,
	cfg Config,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		gateway: gateway,
		outbox:  publisher,
		cfg:     cfg,
		logg:    logg,
	}, nil
}

func (s *service) Run(ctx context.Context, order *models.Order, source *models.PaymentSource) (*models.Order, error) {
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "persisted order required")
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
	}

	for !order.State.Terminal() {
		if err := s.step(ctx, order, source); err != nil {
			return order, err
		}
	}
	return order, nil
}

func (s *service) step(ctx context.Context, order *models.Order, source *models.PaymentSource) error {
	switch order.State {
	case enums.OrderStateCart:
		return s.fromCart(ctx, order)
	case enums.OrderStateAddress:
		return s.fromAddress(ctx, order)
	case enums.OrderStateDelivery:
		return s.fromDelivery(ctx, order)
	case enums.OrderStatePayment:
		return s.fromPayment(ctx, order, source)
	case enums.OrderStateConfirm:
		return s.fromConfirm(ctx, order, source)
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in state %q cannot advance", order.State))
	}
}

func (s *service) fromCart(ctx context.Context, order *models.Order) error {
	if len(order.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no line items")
	}

	itemCents := 0
	for _, item := range order.Items {
		itemCents += item.TotalCents
	}

	return s.advance(ctx, order, enums.OrderStateAddress, map[string]any{
		"item_total_cents": itemCents,
	}, func(o *models.Order) {
		o.ItemTotalCents = itemCents
	})
}

func (s *service) fromAddress(ctx context.Context, order *models.Order) error {
	if err := ValidateShippingAddress(order.ShippingAddress); err != nil {
		return err
	}
	return s.advance(ctx, order, enums.OrderStateDelivery, nil, nil)
}

func (s *service) fromDelivery(ctx context.Context, order *models.Order) error {
	shipment := &models.Shipment{
		ID:        uuid.New(),
		OrderID:   order.ID,
		CostCents: s.cfg.ShipmentFeeCents,
		State:     enums.ShipmentStatePending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateShipment(ctx, shipment); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, order.ID, map[string]any{
			"ship_total_cents": shipment.CostCents,
			"state":            enums.OrderStatePayment,
		})
	})
	if err != nil {
		return err
	}

	order.Shipments = append(order.Shipments, *shipment)
	order.ShipTotalCents = shipment.CostCents
	order.State = enums.OrderStatePayment
	return nil
}

func (s *service) fromPayment(ctx context.Context, order *models.Order, source *models.PaymentSource) error {
	totals := ComputeTotals(order.Items, order.ShipTotalCents, s.cfg.TaxRate)

	if totals.TotalCents > 0 && source == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no usable payment source")
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		OrderID:     order.ID,
		AmountCents: totals.TotalCents,
		State:       enums.PaymentStateCheckout,
	}
	if source != nil {
		payment.PaymentSourceID = &source.ID
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, order.ID, map[string]any{
			"tax_total_cents": totals.TaxCents,
			"total_cents":     totals.TotalCents,
			"state":           enums.OrderStateConfirm,
		})
	})
	if err != nil {
		return err
	}

	order.Payments = append(order.Payments, *payment)
	order.TaxTotalCents = totals.TaxCents
	order.TotalCents = totals.TotalCents
	order.State = enums.OrderStateConfirm
	return nil
}

func (s *service) fromConfirm(ctx context.Context, order *models.Order, source *models.PaymentSource) error {
	payment := pendingPayment(order)
	if payment == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no pending payment on order")
	}

	var captureID *string
	if order.TotalCents > 0 {
		// Zero-total orders complete without touching the gateway.
		result, err := s.gateway.Capture(ctx, GatewayCharge{
			AmountCents: order.TotalCents,
			Currency:    order.Currency.String(),
			SourceToken: sourceToken(source),
			ReferenceID: order.ID.String(),
		})
		if err != nil {
			if pkgerrors.Retryable(err) {
				// Outage, not a decline. Leave the order at confirm for a
				// later run.
				return err
			}
			return s.declined(ctx, order, payment, err)
		}
		captureID = &result.CaptureID
	}

	completedAt := time.Now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdatePayment(ctx, payment.ID, map[string]any{
			"state":              enums.PaymentStateCompleted,
			"gateway_capture_id": captureID,
		}); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"state":        enums.OrderStateComplete,
			"completed_at": completedAt,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: map[string]any{
				"orderId":     order.ID.String(),
				"customerId":  order.CustomerID.String(),
				"totalCents":  order.TotalCents,
				"completedAt": completedAt,
			},
			Version: 1,
		})
	})
	if err != nil {
		return err
	}

	payment.State = enums.PaymentStateCompleted
	payment.GatewayCaptureID = captureID
	order.State = enums.OrderStateComplete
	order.CompletedAt = &completedAt

	if s.logg != nil {
		s.logg.Info(ctx, "order completed")
	}
	return nil
}

// declined records a definitive gateway decline: the payment and the order
// both land in their failed states.
func (s *service) declined(ctx context.Context, order *models.Order, payment *models.Payment, cause error) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdatePayment(ctx, payment.ID, map[string]any{
			"state": enums.PaymentStateFailed,
		}); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, order.ID, map[string]any{
			"state": enums.OrderStateFailed,
		})
	})
	if err != nil {
		return err
	}

	payment.State = enums.PaymentStateFailed
	order.State = enums.OrderStateFailed

	if s.logg != nil {
		s.logg.Error(ctx, "payment declined", cause)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "payment declined")
}

func (s *service) advance(
	ctx context.Context,
	order *models.Order,
	next enums.OrderState,
	updates map[string]any,
	apply func(*models.Order),
) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["state"] = next

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).UpdateOrder(ctx, order.ID, updates)
	})
	if err != nil {
		return err
	}

	if apply != nil {
		apply(order)
	}
	order.State = next
	return nil
}

func pendingPayment(order *models.Order) *models.Payment {
	for i := range order.Payments {
		if order.Payments[i].State == enums.PaymentStateCheckout {
			return &order.Payments[i]
		}
	}
	return nil
}

func sourceToken(source *models.PaymentSource) string {
	if source == nil {
		return ""
	}
	return source.GatewayToken
}
