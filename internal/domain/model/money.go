package model

import "github.com/shopspring/decimal"

var (
	// FreeShippingThreshold is the items subtotal above which shipping is waived.
	FreeShippingThreshold = decimal.NewFromInt(1000)
	// FlatShippingPrice applies to every cart at or below the threshold.
	FlatShippingPrice = decimal.NewFromInt(60)
	// VATRate is the single flat tax rate applied to the items subtotal.
	VATRate = decimal.RequireFromString("0.15")
)

// Round2 rounds amount to two decimal places, half away from zero.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FromCents converts minor units into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Cents converts amount into minor units after rounding.
func Cents(amount decimal.Decimal) int64 {
	return Round2(amount).Shift(2).IntPart()
}

// Totals groups derived monetary values of a cart or order.
type Totals struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Equal compares totals at cent precision.
func (t Totals) Equal(other Totals) bool {
	return Cents(t.ItemsPrice) == Cents(other.ItemsPrice) &&
		Cents(t.ShippingPrice) == Cents(other.ShippingPrice) &&
		Cents(t.TaxPrice) == Cents(other.TaxPrice) &&
		Cents(t.TotalPrice) == Cents(other.TotalPrice)
}

// PricedLine is anything contributing unit price times quantity to a subtotal.
type PricedLine interface {
	LineTotal() decimal.Decimal
}

// ComputeTotals derives pricing from lines. Shipping is charged on an empty cart too.
func ComputeTotals[L PricedLine](lines []L) Totals {
	items := decimal.Zero
	for _, line := range lines {
		items = items.Add(line.LineTotal())
	}
	items = Round2(items)

	shipping := FlatShippingPrice
	if items.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := Round2(items.Mul(VATRate))

	return Totals{
		ItemsPrice:    items,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    Round2(items.Add(shipping).Add(tax)),
	}
}
