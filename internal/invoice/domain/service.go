package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billbook/pkg/db/pagination"
)

// ItemInput describes one product line on an incoming invoice.
type ItemInput struct {
	ProductID       string          `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	AmountDiscount  decimal.Decimal `json:"amount_discount"`
	PercentDiscount decimal.Decimal `json:"percent_discount"`
}

// ChargeInput describes one named tax/packaging/transport charge.
type ChargeInput struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

type CreateInvoiceRequest struct {
	CustomerID      string          `json:"customer_id"`
	Items           []ItemInput     `json:"items"`
	TaxItems        []ChargeInput   `json:"tax_items"`
	PackagingItems  []ChargeInput   `json:"packaging_items"`
	TransportItems  []ChargeInput   `json:"transport_items"`
	AmountDiscount  decimal.Decimal `json:"amount_discount"`
	PercentDiscount decimal.Decimal `json:"percent_discount"`
	PaidByCustomer  decimal.Decimal `json:"paid_by_customer"`
	NumberOfCartons int             `json:"number_of_cartons"`
}

// UpdateInvoiceRequest replaces the invoice's line items and charges
// wholesale; totals are recomputed from the immutable pre-invoice
// balance snapshot.
type UpdateInvoiceRequest struct {
	ID              string          `json:"-"`
	Items           []ItemInput     `json:"items"`
	TaxItems        []ChargeInput   `json:"tax_items"`
	PackagingItems  []ChargeInput   `json:"packaging_items"`
	TransportItems  []ChargeInput   `json:"transport_items"`
	AmountDiscount  decimal.Decimal `json:"amount_discount"`
	PercentDiscount decimal.Decimal `json:"percent_discount"`
	PaidByCustomer  decimal.Decimal `json:"paid_by_customer"`
	NumberOfCartons int             `json:"number_of_cartons"`
}

type ListInvoiceRequest struct {
	pagination.Pagination
	CustomerID string `form:"customer_id"`
	Status     string `form:"status"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// Service is the invoice posting engine. Every mutation runs as one
// atomic transaction over the invoice rows and the customer balance.
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (Invoice, error)
	Void(ctx context.Context, id string) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
}

var (
	ErrInvalidID          = errors.New("invalid_invoice_id")
	ErrInvalidCustomer    = errors.New("invalid_customer")
	ErrInvalidItems       = errors.New("invalid_items")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidPaidAmount  = errors.New("invalid_paid_amount")
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrInvoiceVoided      = errors.New("invoice_voided")
	ErrInvoiceAlreadyVoid = errors.New("invoice_already_void")
)
