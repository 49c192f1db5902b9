package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	out, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return out
}

func TestResolveDiscountAmountWinsOverPercent(t *testing.T) {
	got := ResolveDiscount(d("1000"), d("100"), d("50"))
	if !got.Equal(d("100")) {
		t.Fatalf("expected flat amount to win, got %s", got)
	}
}

func TestResolveDiscountPercentOfBase(t *testing.T) {
	got := ResolveDiscount(d("1000"), decimal.Zero, d("10"))
	if !got.Equal(d("100")) {
		t.Fatalf("expected 10%% of 1000 = 100, got %s", got)
	}
}

func TestResolveDiscountClampedToBase(t *testing.T) {
	got := ResolveDiscount(d("50"), d("80"), decimal.Zero)
	if !got.Equal(d("50")) {
		t.Fatalf("discount must not exceed base, got %s", got)
	}
}

func TestResolveDiscountZeroInputs(t *testing.T) {
	got := ResolveDiscount(d("1000"), decimal.Zero, decimal.Zero)
	if !got.IsZero() {
		t.Fatalf("expected zero discount, got %s", got)
	}
}

func TestResolveChargeAmountWinsOverPercent(t *testing.T) {
	got := ResolveCharge(d("900"), d("150"), d("18"))
	if !got.Equal(d("150")) {
		t.Fatalf("expected flat amount to win, got %s", got)
	}
}

func TestResolveChargePercentOfBase(t *testing.T) {
	got := ResolveCharge(d("900"), decimal.Zero, d("18"))
	if !got.Equal(d("162")) {
		t.Fatalf("expected 18%% of 900 = 162, got %s", got)
	}
}

func TestLineTotalWithLineDiscount(t *testing.T) {
	item := InvoiceItem{
		ProductPrice:    d("100"),
		Quantity:        d("5"),
		PercentDiscount: d("10"),
	}
	got := LineTotal(item)
	if !got.Equal(d("450")) {
		t.Fatalf("expected 500 - 10%% = 450, got %s", got)
	}
}

func TestLineTotalFlooredAtZero(t *testing.T) {
	item := InvoiceItem{
		ProductPrice:   d("10"),
		Quantity:       d("1"),
		AmountDiscount: d("999"),
	}
	got := LineTotal(item)
	if !got.IsZero() {
		t.Fatalf("line total must not go negative, got %s", got)
	}
}

func TestComputeTotalsFullPipeline(t *testing.T) {
	items := []InvoiceItem{
		{ProductPrice: d("100"), Quantity: d("10")},
	}
	taxItems := []TaxItem{
		{Name: "GST", Percent: d("18")},
	}
	packagingItems := []PackagingItem{
		{Name: "Box", Amount: d("25")},
	}
	transportItems := []TransportItem{
		{Name: "Freight", Amount: d("25")},
	}

	totals := ComputeTotals(items, taxItems, packagingItems, transportItems, d("100"), decimal.Zero, 2)

	if !totals.Subtotal.Equal(d("1000")) {
		t.Fatalf("subtotal: expected 1000, got %s", totals.Subtotal)
	}
	if !totals.AfterDiscount.Equal(d("900")) {
		t.Fatalf("after discount: expected 900, got %s", totals.AfterDiscount)
	}
	if !totals.TaxTotal.Equal(d("162")) {
		t.Fatalf("tax total: expected 162, got %s", totals.TaxTotal)
	}
	if !totals.PackagingTotal.Equal(d("50")) {
		t.Fatalf("packaging total: expected 25 x 2 cartons = 50, got %s", totals.PackagingTotal)
	}
	if !totals.TransportTotal.Equal(d("50")) {
		t.Fatalf("transport total: expected 25 x 2 cartons = 50, got %s", totals.TransportTotal)
	}
	if !totals.FinalAmount.Equal(d("1162")) {
		t.Fatalf("final amount: expected 1162, got %s", totals.FinalAmount)
	}
}

func TestComputeTotalsCartonsFlooredToOne(t *testing.T) {
	packagingItems := []PackagingItem{{Name: "Box", Amount: d("30")}}

	totals := ComputeTotals(nil, nil, packagingItems, nil, decimal.Zero, decimal.Zero, 0)

	if !totals.PackagingTotal.Equal(d("30")) {
		t.Fatalf("expected carton count floored to 1, got %s", totals.PackagingTotal)
	}
}

func TestComputeTotalsInvoiceDiscountAmountWins(t *testing.T) {
	items := []InvoiceItem{
		{ProductPrice: d("200"), Quantity: d("5")},
	}

	totals := ComputeTotals(items, nil, nil, nil, d("100"), d("50"), 1)

	if !totals.AfterDiscount.Equal(d("900")) {
		t.Fatalf("flat discount must win over percent, got %s", totals.AfterDiscount)
	}
}
