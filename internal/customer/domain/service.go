package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/billbook/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Firm    string `json:"firm"`
	Address string `json:"address"`
}

type UpdateCustomerRequest struct {
	ID      string  `json:"-"`
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Firm    *string `json:"firm,omitempty"`
	Address *string `json:"address,omitempty"`
}

type ListCustomerRequest struct {
	pagination.Pagination
	Name  string `form:"name"`
	Phone string `form:"phone"`
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

// Service manages customer registration and lookup. Balances are owned
// by the posting engines and are read-only here.
type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	Update(ctx context.Context, req UpdateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
}

var (
	ErrInvalidID        = errors.New("invalid_customer_id")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidPhone     = errors.New("invalid_phone")
	ErrPhoneTaken       = errors.New("phone_taken")
	ErrFirmTaken        = errors.New("firm_taken")
	ErrCustomerNotFound = errors.New("customer_not_found")
)
