package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billbook/pkg/db/pagination"
)

type CreateCreditRequest struct {
	CustomerID           string          `json:"customer_id"`
	AmountPaidByCustomer decimal.Decimal `json:"amount_paid_by_customer"`
}

type ListCreditRequest struct {
	pagination.Pagination
	CustomerID string `form:"customer_id"`
	Status     string `form:"status"`
}

type ListCreditResponse struct {
	pagination.PageInfo
	Credits []Credit `json:"credits"`
}

// Service is the credit posting engine. Every mutation runs as one
// atomic transaction over the credit row and the customer balance.
type Service interface {
	Create(ctx context.Context, req CreateCreditRequest) (Credit, error)
	Void(ctx context.Context, id string) (Credit, error)
	GetByID(ctx context.Context, id string) (Credit, error)
	List(ctx context.Context, req ListCreditRequest) (ListCreditResponse, error)
}

var (
	ErrInvalidID         = errors.New("invalid_credit_id")
	ErrInvalidCustomer   = errors.New("invalid_customer")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrCreditNotFound    = errors.New("credit_not_found")
	ErrCreditAlreadyVoid = errors.New("credit_already_void")
)
