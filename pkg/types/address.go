package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Address mirrors the address_t composite Postgres type used for shipping
// addresses on orders and customer profiles.
type Address struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Value marshals Address into a Postgres composite literal.
func (a Address) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Line1) == "" {
		return nil, fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return nil, fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return nil, fmt.Errorf("address: missing postal_code")
	}

	country := strings.TrimSpace(a.Country)
	if country == "" {
		country = "US"
	}

	parts := []string{
		quoteComposite(a.Name),
		quoteComposite(a.Line1),
		quoteCompositeNullable(a.Line2),
		quoteComposite(a.City),
		quoteComposite(a.State),
		quoteComposite(a.PostalCode),
		quoteComposite(country),
	}

	return "(" + strings.Join(parts, ",") + ")", nil
}

// Scan decodes the Postgres composite literal.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}

	fields, err := splitComposite(raw, 7)
	if err != nil {
		return err
	}

	a.Name = fields[0]
	a.Line1 = fields[1]
	a.Line2 = compositeNullable(fields[2])
	a.City = fields[3]
	a.State = fields[4]
	a.PostalCode = fields[5]

	country := strings.TrimSpace(fields[6])
	if country == "" || compositeNull(fields[6]) {
		country = "US"
	}
	a.Country = country

	return nil
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
