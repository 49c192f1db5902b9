package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
)

type createCreditRequest struct {
	CustomerID           string          `json:"customer_id"`
	AmountPaidByCustomer decimal.Decimal `json:"amount_paid_by_customer"`
}

// @Summary      Create Credit
// @Description  Post a standalone payment against a customer's balance
// @Tags         credits
// @Accept       json
// @Produce      json
// @Param        request body createCreditRequest true "Create Credit Request"
// @Success      200  {object}  creditdomain.Credit
// @Router       /credits [post]
func (s *Server) CreateCredit(c *gin.Context) {
	var req createCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.creditSvc.Create(c.Request.Context(), creditdomain.CreateCreditRequest{
		CustomerID:           strings.TrimSpace(req.CustomerID),
		AmountPaidByCustomer: req.AmountPaidByCustomer,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "credit.create", "credit", resp.ID.String(), map[string]any{
		"customer_id": resp.CustomerID.String(),
		"amount":      resp.AmountPaidByCustomer.String(),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Void Credit
// @Description  Void a credit and restore the customer's pre-credit balance
// @Tags         credits
// @Produce      json
// @Param        id   path  string  true  "Credit ID"
// @Success      200  {object}  creditdomain.Credit
// @Router       /credits/{id}/void [post]
func (s *Server) VoidCredit(c *gin.Context) {
	resp, err := s.creditSvc.Void(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "credit.void", "credit", resp.ID.String(), map[string]any{
		"customer_id": resp.CustomerID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Credits
// @Description  List credits filtered by customer and status
// @Tags         credits
// @Produce      json
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        status       query  string  false  "Status (ACTIVE or VOID)"
// @Param        page_token   query  string  false  "Page Token"
// @Param        page_size    query  int     false  "Page Size"
// @Success      200  {object}  creditdomain.ListCreditResponse
// @Router       /credits [get]
func (s *Server) ListCredits(c *gin.Context) {
	var query creditdomain.ListCreditRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.creditSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Credit
// @Description  Get credit by ID
// @Tags         credits
// @Produce      json
// @Param        id   path      string  true  "Credit ID"
// @Success      200  {object}  creditdomain.Credit
// @Router       /credits/{id} [get]
func (s *Server) GetCreditByID(c *gin.Context) {
	resp, err := s.creditSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
