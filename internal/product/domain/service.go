package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billbook/pkg/db/pagination"
)

type CreateRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type UpdateRequest struct {
	ID    string           `json:"-"`
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

type ListRequest struct {
	pagination.Pagination
	Name string `form:"name"`
}

type ListResponse struct {
	pagination.PageInfo
	Products []Product `json:"products"`
}

// Service manages the product catalog. Delete is refused while any
// invoice line item references the product.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (Product, error)
	Update(ctx context.Context, req UpdateRequest) (Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID       = errors.New("invalid_product_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrProductNotFound = errors.New("product_not_found")
	ErrProductInUse    = errors.New("product_in_use")
)
