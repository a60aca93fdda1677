package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(moneyPlaces)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(moneyPlaces).Float64()
	return f
}

// LineAmount returns quantity × unitPrice rounded to cents.
func LineAmount(quantity, unitPrice float64) float64 {
	return toFloat(decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice)))
}

// ApplyAmount sets it.Amount from its quantity and unit price.
func (it *InvoiceItem) ApplyAmount() {
	it.Amount = LineAmount(it.Quantity, it.UnitPrice)
}

// ApplyTotals recomputes subtotal, tax and total from items.
// Items must already carry their amounts.
func (inv *Invoice) ApplyTotals(items []InvoiceItem) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(money(it.Amount))
	}
	tax := subtotal.Mul(decimal.NewFromFloat(inv.TaxRate)).Div(decimal.NewFromInt(100)).Round(moneyPlaces)

	inv.Subtotal = toFloat(subtotal)
	inv.TaxAmount = toFloat(tax)
	inv.Total = toFloat(subtotal.Add(tax))
}

// CheckTotals enforces total == subtotal + tax_amount (to the cent).
func (inv Invoice) CheckTotals() error {
	want := money(inv.Subtotal).Add(money(inv.TaxAmount))
	if !want.Equal(money(inv.Total)) {
		return fmt.Errorf("%w (subtotal=%s tax=%s total=%s)", ErrTotalsMismatch,
			money(inv.Subtotal).StringFixed(moneyPlaces),
			money(inv.TaxAmount).StringFixed(moneyPlaces),
			money(inv.Total).StringFixed(moneyPlaces))
	}
	return nil
}

// FormatMoney renders v with two decimals, for print output.
func FormatMoney(v float64) string {
	return money(v).StringFixed(moneyPlaces)
}
