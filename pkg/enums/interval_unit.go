package enums

import (
	"fmt"
	"time"
)

// IntervalUnit is the unit of a subscription's billing interval.
type IntervalUnit string

const (
	IntervalUnitDay   IntervalUnit = "day"
	IntervalUnitWeek  IntervalUnit = "week"
	IntervalUnitMonth IntervalUnit = "month"
	IntervalUnitYear  IntervalUnit = "year"
)

var validIntervalUnits = []IntervalUnit{
	IntervalUnitDay,
	IntervalUnitWeek,
	IntervalUnitMonth,
	IntervalUnitYear,
}

// String implements fmt.Stringer.
func (u IntervalUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known IntervalUnit.
func (u IntervalUnit) IsValid() bool {
	for _, candidate := range validIntervalUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// Advance returns t moved forward by length units.
func (u IntervalUnit) Advance(t time.Time, length int) time.Time {
	if length <= 0 {
		return t
	}
	switch u {
	case IntervalUnitDay:
		return t.AddDate(0, 0, length)
	case IntervalUnitWeek:
		return t.AddDate(0, 0, 7*length)
	case IntervalUnitMonth:
		return t.AddDate(0, length, 0)
	case IntervalUnitYear:
		return t.AddDate(length, 0, 0)
	default:
		return t
	}
}

// ParseIntervalUnit converts raw input into an IntervalUnit.
func ParseIntervalUnit(value string) (IntervalUnit, error) {
	for _, candidate := range validIntervalUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid interval unit %q", value)
}
