package enums

import "fmt"

// PaymentState tracks the lifecycle of an order payment.
type PaymentState string

const (
	PaymentStateCheckout  PaymentState = "checkout"
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateInvalid   PaymentState = "invalid"
)

var validPaymentStates = []PaymentState{
	PaymentStateCheckout,
	PaymentStatePending,
	PaymentStateCompleted,
	PaymentStateFailed,
	PaymentStateInvalid,
}

// String implements fmt.Stringer.
func (s PaymentState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentState.
func (s PaymentState) IsValid() bool {
	for _, candidate := range validPaymentStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// Usable reports whether a payment in this state still counts toward an
// order's payable balance (neither failed nor voided).
func (s PaymentState) Usable() bool {
	return s != PaymentStateFailed && s != PaymentStateInvalid
}

// ParsePaymentState converts raw input into a PaymentState.
func ParsePaymentState(value string) (PaymentState, error) {
	for _, candidate := range validPaymentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment state %q", value)
}
