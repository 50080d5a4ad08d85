package enums

import "fmt"

// OrderState tracks an order's progress through checkout.
type OrderState string

const (
	OrderStateCart     OrderState = "cart"
	OrderStateAddress  OrderState = "address"
	OrderStateDelivery OrderState = "delivery"
	OrderStatePayment  OrderState = "payment"
	OrderStateConfirm  OrderState = "confirm"
	OrderStateComplete OrderState = "complete"
	OrderStateFailed   OrderState = "failed"
)

var validOrderStates = []OrderState{
	OrderStateCart,
	OrderStateAddress,
	OrderStateDelivery,
	OrderStatePayment,
	OrderStateConfirm,
	OrderStateComplete,
	OrderStateFailed,
}

// checkoutSequence is the linear path from empty cart to completed order.
var checkoutSequence = []OrderState{
	OrderStateCart,
	OrderStateAddress,
	OrderStateDelivery,
	OrderStatePayment,
	OrderStateConfirm,
	OrderStateComplete,
}

// String implements fmt.Stringer.
func (s OrderState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderState.
func (s OrderState) IsValid() bool {
	for _, candidate := range validOrderStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further checkout transition is possible.
func (s OrderState) Terminal() bool {
	return s == OrderStateComplete || s == OrderStateFailed
}

// Next returns the state that follows s on the checkout path. Terminal states
// and failed return themselves.
func (s OrderState) Next() OrderState {
	for i, candidate := range checkoutSequence {
		if candidate == s && i+1 < len(checkoutSequence) {
			return checkoutSequence[i+1]
		}
	}
	return s
}

// ParseOrderState converts raw input into an OrderState.
func ParseOrderState(value string) (OrderState, error) {
	for _, candidate := range validOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order state %q", value)
}
