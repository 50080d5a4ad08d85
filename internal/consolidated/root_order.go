package consolidated

import (
	"github.com/replenishlabs/replenish-backend/pkg/db/models"
	pkgerrors "github.com/replenishlabs/replenish-backend/pkg/errors"
)

// SelectRootOrder picks the order the consolidated attempt inherits its
// store and fallbacks from: the most recently created origin order across the
// batch's subscriptions. Ties on creation time keep the earlier batch entry.
func SelectRootOrder(installments []models.Installment) (*models.Order, error) {
	var root *models.Order
	for i := range installments {
		sub := installments[i].Subscription
		if sub == nil || sub.OriginOrder == nil {
			continue
		}
		candidate := sub.OriginOrder
		if root == nil || candidate.CreatedAt.After(root.CreatedAt) {
			root = candidate
		}
	}
	if root == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no root order for batch")
	}
	return root, nil
}
