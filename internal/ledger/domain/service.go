package domain

import (
	"context"
	"errors"
)

// Service is the read side of the ledger: balance fan-out queries that
// never mutate state.
type Service interface {
	Overview(ctx context.Context) (Overview, error)
	CustomerHistory(ctx context.Context, customerID string) (History, error)
}

var (
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrCustomerNotFound = errors.New("customer_not_found")
)
