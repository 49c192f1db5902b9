package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/billbook/internal/ledger/domain"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
)

// ErrServiceUnavailable is returned when a handler's backing service is
// not wired.
var ErrServiceUnavailable = errors.New("service_unavailable")

// APIError carries an HTTP status alongside a machine-readable code.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code }

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body or query could not be parsed",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

// AbortWithError maps a service error to an HTTP response. Unknown
// errors become opaque 500s so internals never leak to clients.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal server error"

	switch {
	case isNotFoundError(err):
		status = http.StatusNotFound
		code = err.Error()
		message = "resource not found"
	case isConflictError(err):
		status = http.StatusConflict
		code = err.Error()
		message = "request conflicts with current state"
	case isValidationError(err):
		status = http.StatusBadRequest
		code = err.Error()
		message = "request validation failed"
	case errors.Is(err, ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
		code = "service_unavailable"
		message = "service unavailable"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}})
}

func isNotFoundError(err error) bool {
	for _, target := range []error{
		customerdomain.ErrCustomerNotFound,
		productdomain.ErrProductNotFound,
		invoicedomain.ErrInvoiceNotFound,
		creditdomain.ErrCreditNotFound,
		ledgerdomain.ErrCustomerNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflictError(err error) bool {
	for _, target := range []error{
		customerdomain.ErrPhoneTaken,
		customerdomain.ErrFirmTaken,
		productdomain.ErrProductInUse,
		invoicedomain.ErrInvoiceVoided,
		invoicedomain.ErrInvoiceAlreadyVoid,
		creditdomain.ErrCreditAlreadyVoid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isValidationError(err error) bool {
	for _, target := range []error{
		customerdomain.ErrInvalidID,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidPhone,
		productdomain.ErrInvalidID,
		productdomain.ErrInvalidName,
		productdomain.ErrInvalidPrice,
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidCustomer,
		invoicedomain.ErrInvalidItems,
		invoicedomain.ErrInvalidQuantity,
		invoicedomain.ErrInvalidPaidAmount,
		creditdomain.ErrInvalidID,
		creditdomain.ErrInvalidCustomer,
		creditdomain.ErrInvalidAmount,
		ledgerdomain.ErrInvalidCustomer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
