package consolidated

import (
	"github.com/google/uuid"

	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/enums"
	pkgerrors "github.com/replenishlabs/replenish-backend/pkg/errors"
	"github.com/replenishlabs/replenish-backend/pkg/types"
)

// AssembleOrder builds the in-memory consolidated order: a brand-new cart for
// the customer, store inherited from the root order, email always the
// customer's current one, and one line item per installment carrying the
// subscription's product, quantity, and unit price.
func AssembleOrder(
	customer *models.Customer,
	root *models.Order,
	address *types.Address,
	installments []models.Installment,
	fallbackStore string,
	currency enums.Currency,
) (*models.Order, error) {
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer required")
	}

	store := fallbackStore
	if root != nil && root.Store != "" {
		store = root.Store
	}

	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      customer.ID,
		Store:           store,
		Email:           customer.Email,
		Currency:        currency,
		State:           enums.OrderStateCart,
		ShippingAddress: address,
	}

	items, err := buildLineItems(order.ID, installments)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// buildLineItems materializes one line item per installment from its
// subscription's product, quantity, and unit price.
func buildLineItems(orderID uuid.UUID, installments []models.Installment) ([]models.OrderLineItem, error) {
	items := make([]models.OrderLineItem, 0, len(installments))
	for i := range installments {
		sub := installments[i].Subscription
		if sub == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "installment missing subscription")
		}
		items = append(items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        orderID,
			ProductID:      sub.ProductID,
			Quantity:       sub.Quantity,
			UnitPriceCents: sub.UnitPriceCents,
			TotalCents:     sub.Quantity * sub.UnitPriceCents,
		})
	}
	return items, nil
}
