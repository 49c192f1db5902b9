package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals is the result of the pure invoice totals pipeline.
type Totals struct {
	// Subtotal is the sum of line totals after line-level discounts.
	Subtotal decimal.Decimal
	// AfterDiscount is Subtotal reduced by the invoice-level discount.
	AfterDiscount decimal.Decimal
	// TaxTotal is the sum of all resolved tax charges.
	TaxTotal decimal.Decimal
	// PackagingTotal and TransportTotal are the per-unit charge sums
	// multiplied by the carton count.
	PackagingTotal decimal.Decimal
	TransportTotal decimal.Decimal
	// FinalAmount = AfterDiscount + TaxTotal + PackagingTotal + TransportTotal.
	FinalAmount decimal.Decimal
}

// ResolveDiscount applies the amount-vs-percent rule against a base:
// a non-zero flat amount always wins over a percentage. The result is
// clamped to [0, base] so a reduction never drives a total negative.
func ResolveDiscount(base, amount, percent decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch {
	case amount.IsPositive():
		discount = amount
	case percent.IsPositive():
		discount = base.Mul(percent).Div(hundred)
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(base) {
		return base
	}
	return discount
}

// ResolveCharge applies the same amount-vs-percent rule for an
// additive charge (tax): flat amount wins, otherwise percent of base.
func ResolveCharge(base, amount, percent decimal.Decimal) decimal.Decimal {
	if amount.IsPositive() {
		return amount
	}
	if percent.IsPositive() {
		charge := base.Mul(percent).Div(hundred)
		if charge.IsNegative() {
			return decimal.Zero
		}
		return charge
	}
	return decimal.Zero
}

// LineTotal computes price x quantity reduced by the line-level
// discount, floored at zero.
func LineTotal(item InvoiceItem) decimal.Decimal {
	subtotal := item.ProductPrice.Mul(item.Quantity)
	if subtotal.IsNegative() {
		return decimal.Zero
	}
	return subtotal.Sub(ResolveDiscount(subtotal, item.AmountDiscount, item.PercentDiscount))
}

// ComputeTotals runs the full totals pipeline over an invoice's line
// items and charges. Pure; all persisted monetary fields derive from it.
func ComputeTotals(
	items []InvoiceItem,
	taxItems []TaxItem,
	packagingItems []PackagingItem,
	transportItems []TransportItem,
	amountDiscount, percentDiscount decimal.Decimal,
	numberOfCartons int,
) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item))
	}

	afterDiscount := subtotal.Sub(ResolveDiscount(subtotal, amountDiscount, percentDiscount))

	taxTotal := decimal.Zero
	for _, tax := range taxItems {
		taxTotal = taxTotal.Add(ResolveCharge(afterDiscount, tax.Amount, tax.Percent))
	}

	cartons := decimal.NewFromInt(int64(numberOfCartons))
	if cartons.LessThan(decimal.NewFromInt(1)) {
		cartons = decimal.NewFromInt(1)
	}

	packagingTotal := decimal.Zero
	for _, charge := range packagingItems {
		packagingTotal = packagingTotal.Add(charge.Amount)
	}
	packagingTotal = packagingTotal.Mul(cartons)

	transportTotal := decimal.Zero
	for _, charge := range transportItems {
		transportTotal = transportTotal.Add(charge.Amount)
	}
	transportTotal = transportTotal.Mul(cartons)

	return Totals{
		Subtotal:       subtotal,
		AfterDiscount:  afterDiscount,
		TaxTotal:       taxTotal,
		PackagingTotal: packagingTotal,
		TransportTotal: transportTotal,
		FinalAmount:    afterDiscount.Add(taxTotal).Add(packagingTotal).Add(transportTotal),
	}
}
