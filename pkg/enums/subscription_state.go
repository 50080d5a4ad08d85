package enums

import "fmt"

// SubscriptionState tracks the lifecycle of a subscription.
type SubscriptionState string

const (
	SubscriptionStateActive   SubscriptionState = "active"
	SubscriptionStatePaused   SubscriptionState = "paused"
	SubscriptionStateCanceled SubscriptionState = "canceled"
)

var validSubscriptionStates = []SubscriptionState{
	SubscriptionStateActive,
	SubscriptionStatePaused,
	SubscriptionStateCanceled,
}

// String implements fmt.Stringer.
func (s SubscriptionState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubscriptionState.
func (s SubscriptionState) IsValid() bool {
	for _, candidate := range validSubscriptionStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionState converts raw input into a SubscriptionState.
func ParseSubscriptionState(value string) (SubscriptionState, error) {
	for _, candidate := range validSubscriptionStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription state %q", value)
}
