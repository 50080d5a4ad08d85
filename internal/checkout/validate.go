package checkout

import (
	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/replenishlabs/replenish-backend/pkg/errors"
	"github.com/replenishlabs/replenish-backend/pkg/types"
)

var validate = validator.New()

type shippingAddressRules struct {
	Line1      string `validate:"required"`
	City       string `validate:"required"`
	State      string `validate:"required"`
	PostalCode string `validate:"required"`
	Country    string `validate:"required,iso3166_1_alpha2"`
}

// ValidateShippingAddress checks the address precondition for leaving the
// address state.
func ValidateShippingAddress(addr *types.Address) error {
	if addr == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no shipping address")
	}
	rules := shippingAddressRules{
		Line1:      addr.Line1,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
	if err := validate.Struct(rules); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping address incomplete")
	}
	return nil
}
