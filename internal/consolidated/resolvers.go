package consolidated

import (
	"context"

	"github.com/replenishlabs/replenish-backend/internal/orders"
	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	"github.com/replenishlabs/replenish-backend/pkg/types"
)

// ResolveShippingAddress prefers the customer's default address and falls back
// to the root order's ship-to. A nil result is not fatal here; checkout
// surfaces the failure at the address state.
func ResolveShippingAddress(customer *models.Customer, root *models.Order) *types.Address {
	if customer != nil && customer.DefaultShippingAddress != nil {
		return customer.DefaultShippingAddress
	}
	if root != nil {
		return root.ShippingAddress
	}
	return nil
}

// ResolvePaymentSource prefers the customer's default source and falls back to
// the source behind the root order's most recent usable payment. A nil result
// with nil error means no source could be found, which is a valid outcome:
// zero-total orders need none, and nonzero orders halt at the payment state.
func ResolvePaymentSource(ctx context.Context, repo orders.Repository, customer *models.Customer, root *models.Order) (*models.PaymentSource, error) {
	if customer != nil && customer.DefaultPaymentSource != nil && customer.DefaultPaymentSource.Active {
		return customer.DefaultPaymentSource, nil
	}
	if root == nil {
		return nil, nil
	}
	payment, err := repo.FindLatestUsablePayment(ctx, root.ID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.PaymentSource == nil || !payment.PaymentSource.Active {
		return nil, nil
	}
	return payment.PaymentSource, nil
}
