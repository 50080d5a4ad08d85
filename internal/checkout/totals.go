package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/replenishlabs/replenish-backend/pkg/db/models"
)

// Totals holds the order money columns in cents.
type Totals struct {
	ItemCents  int
	ShipCents  int
	TaxCents   int
	TotalCents int
}

// ComputeTotals sums line items, applies the flat shipment fee, and computes
// tax on the item subtotal. Tax rounds half-up to whole cents.
func ComputeTotals(items []models.OrderLineItem, shipCents int, taxRate decimal.Decimal) Totals {
	itemCents := 0
	for _, item := range items {
		itemCents += item.TotalCents
	}

	taxCents := 0
	if taxRate.IsPositive() && itemCents > 0 {
		taxCents = int(decimal.NewFromInt(int64(itemCents)).
			Mul(taxRate).
			Round(0).
			IntPart())
	}

	return Totals{
		ItemCents:  itemCents,
		ShipCents:  shipCents,
		TaxCents:   taxCents,
		TotalCents: itemCents + shipCents + taxCents,
	}
}
