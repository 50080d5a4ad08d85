package enums

import "fmt"

// ShipmentState tracks the fulfillment progress of an order shipment.
type ShipmentState string

const (
	ShipmentStatePending ShipmentState = "pending"
	ShipmentStateReady   ShipmentState = "ready"
	ShipmentStateShipped ShipmentState = "shipped"
)

var validShipmentStates = []ShipmentState{
	ShipmentStatePending,
	ShipmentStateReady,
	ShipmentStateShipped,
}

// String implements fmt.Stringer.
func (s ShipmentState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentState.
func (s ShipmentState) IsValid() bool {
	for _, candidate := range validShipmentStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentState converts raw input into a ShipmentState.
func ParseShipmentState(value string) (ShipmentState, error) {
	for _, candidate := range validShipmentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment state %q", value)
}
