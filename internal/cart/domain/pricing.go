package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Bundle attaches an item to a bundle group at a fixed discount.
type Bundle struct {
	GroupID            string
	OfferID            *int64
	DiscountPercentage decimal.Decimal
}

func (b Bundle) Validate() error {
	if strings.TrimSpace(b.GroupID) == "" {
		return ErrInvalidBundle
	}
	if b.DiscountPercentage.IsNegative() || b.DiscountPercentage.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}

// FinalUnitPrice applies pct to original, rounded to cents and capped at original.
func FinalUnitPrice(original, pct decimal.Decimal) decimal.Decimal {
	factor := hundred.Sub(pct).Div(hundred)
	final := original.Mul(factor).Round(2)
	if final.GreaterThan(original) {
		return original
	}
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// UnitPrice is the final unit price of a new item, undiscounted outside a bundle.
func UnitPrice(original decimal.Decimal, bundle *Bundle) decimal.Decimal {
	if bundle == nil {
		return original
	}
	return FinalUnitPrice(original, bundle.DiscountPercentage)
}

func (i Item) Subtotal() decimal.Decimal {
	return i.FinalUnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Totals struct {
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	ShippingCost  decimal.Decimal
	Total         decimal.Decimal
}

// ComputeTotals sums persisted unit prices; it never re-derives them.
func ComputeTotals(items []Item, shipping decimal.Decimal) (Totals, error) {
	t := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		ShippingCost:  shipping,
	}
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		t.Subtotal = t.Subtotal.Add(item.OriginalUnitPrice.Mul(qty))
		t.TotalDiscount = t.TotalDiscount.Add(item.OriginalUnitPrice.Sub(item.FinalUnitPrice).Mul(qty))
	}
	t.Total = t.Subtotal.Sub(t.TotalDiscount).Add(shipping)

	if t.TotalDiscount.IsNegative() {
		return Totals{}, fmt.Errorf("%w: total discount %s is negative", ErrInvariantViolation, t.TotalDiscount)
	}
	if t.Total.IsNegative() {
		return Totals{}, fmt.Errorf("%w: total %s is negative", ErrInvariantViolation, t.Total)
	}
	return t, nil
}
