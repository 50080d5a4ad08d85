package enums

// Currency is an ISO 4217 currency code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// OrDefault returns USD when the value is empty.
func (c Currency) OrDefault() Currency {
	if c == "" {
		return CurrencyUSD
	}
	return c
}
