package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	AbortWithError(c, err)
	return recorder.Code
}

func TestAbortWithErrorNotFound(t *testing.T) {
	for _, err := range []error{
		customerdomain.ErrCustomerNotFound,
		productdomain.ErrProductNotFound,
		invoicedomain.ErrInvoiceNotFound,
		creditdomain.ErrCreditNotFound,
	} {
		if got := statusFor(t, err); got != http.StatusNotFound {
			t.Errorf("%v: expected 404, got %d", err, got)
		}
	}
}

func TestAbortWithErrorConflict(t *testing.T) {
	for _, err := range []error{
		customerdomain.ErrPhoneTaken,
		productdomain.ErrProductInUse,
		invoicedomain.ErrInvoiceVoided,
		invoicedomain.ErrInvoiceAlreadyVoid,
		creditdomain.ErrCreditAlreadyVoid,
	} {
		if got := statusFor(t, err); got != http.StatusConflict {
			t.Errorf("%v: expected 409, got %d", err, got)
		}
	}
}

func TestAbortWithErrorValidation(t *testing.T) {
	for _, err := range []error{
		customerdomain.ErrInvalidPhone,
		productdomain.ErrInvalidPrice,
		invoicedomain.ErrInvalidItems,
		invoicedomain.ErrInvalidQuantity,
		creditdomain.ErrInvalidAmount,
	} {
		if got := statusFor(t, err); got != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", err, got)
		}
	}
}

func TestAbortWithErrorUnknownBecomesInternal(t *testing.T) {
	if got := statusFor(t, errTestOpaque); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestAbortWithErrorAPIErrorPassthrough(t *testing.T) {
	if got := statusFor(t, newValidationError("name", "invalid_name", "name required")); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

var errTestOpaque = &opaqueError{}

type opaqueError struct{}

func (*opaqueError) Error() string { return "database exploded" }
