package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
)

type invoiceItemRequest struct {
	ProductID       string          `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	AmountDiscount  decimal.Decimal `json:"amount_discount"`
	PercentDiscount decimal.Decimal `json:"percent_discount"`
}

type chargeRequest struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

type createInvoiceRequest struct {
	CustomerID      string               `json:"customer_id"`
	Items           []invoiceItemRequest `json:"items"`
	TaxItems        []chargeRequest      `json:"tax_items"`
	PackagingItems  []chargeRequest      `json:"packaging_items"`
	TransportItems  []chargeRequest      `json:"transport_items"`
	AmountDiscount  decimal.Decimal      `json:"amount_discount"`
	PercentDiscount decimal.Decimal      `json:"percent_discount"`
	PaidByCustomer  decimal.Decimal      `json:"paid_by_customer"`
	NumberOfCartons int                  `json:"number_of_cartons"`
}

type updateInvoiceRequest struct {
	Items           []invoiceItemRequest `json:"items"`
	TaxItems        []chargeRequest      `json:"tax_items"`
	PackagingItems  []chargeRequest      `json:"packaging_items"`
	TransportItems  []chargeRequest      `json:"transport_items"`
	AmountDiscount  decimal.Decimal      `json:"amount_discount"`
	PercentDiscount decimal.Decimal      `json:"percent_discount"`
	PaidByCustomer  decimal.Decimal      `json:"paid_by_customer"`
	NumberOfCartons int                  `json:"number_of_cartons"`
}

func toItemInputs(items []invoiceItemRequest) []invoicedomain.ItemInput {
	out := make([]invoicedomain.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, invoicedomain.ItemInput{
			ProductID:       strings.TrimSpace(item.ProductID),
			Quantity:        item.Quantity,
			AmountDiscount:  item.AmountDiscount,
			PercentDiscount: item.PercentDiscount,
		})
	}
	return out
}

func toChargeInputs(charges []chargeRequest) []invoicedomain.ChargeInput {
	out := make([]invoicedomain.ChargeInput, 0, len(charges))
	for _, charge := range charges {
		out = append(out, invoicedomain.ChargeInput{
			Name:    strings.TrimSpace(charge.Name),
			Percent: charge.Percent,
			Amount:  charge.Amount,
		})
	}
	return out
}

// @Summary      Create Invoice
// @Description  Post an invoice against a customer's balance
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body createInvoiceRequest true "Create Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID:      strings.TrimSpace(req.CustomerID),
		Items:           toItemInputs(req.Items),
		TaxItems:        toChargeInputs(req.TaxItems),
		PackagingItems:  toChargeInputs(req.PackagingItems),
		TransportItems:  toChargeInputs(req.TransportItems),
		AmountDiscount:  req.AmountDiscount,
		PercentDiscount: req.PercentDiscount,
		PaidByCustomer:  req.PaidByCustomer,
		NumberOfCartons: req.NumberOfCartons,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.create", "invoice", resp.ID.String(), map[string]any{
		"customer_id":  resp.CustomerID.String(),
		"final_amount": resp.FinalAmount.String(),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Invoice
// @Description  Replace an active invoice's line items and recompute totals
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path  string               true  "Invoice ID"
// @Param        request body  updateInvoiceRequest true  "Update Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id} [put]
func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:              strings.TrimSpace(c.Param("id")),
		Items:           toItemInputs(req.Items),
		TaxItems:        toChargeInputs(req.TaxItems),
		PackagingItems:  toChargeInputs(req.PackagingItems),
		TransportItems:  toChargeInputs(req.TransportItems),
		AmountDiscount:  req.AmountDiscount,
		PercentDiscount: req.PercentDiscount,
		PaidByCustomer:  req.PaidByCustomer,
		NumberOfCartons: req.NumberOfCartons,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.update", "invoice", resp.ID.String(), map[string]any{
		"final_amount": resp.FinalAmount.String(),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Void Invoice
// @Description  Void an invoice and restore the customer's pre-invoice balance
// @Tags         invoices
// @Produce      json
// @Param        id   path  string  true  "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id}/void [post]
func (s *Server) VoidInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Void(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.void", "invoice", resp.ID.String(), map[string]any{
		"customer_id": resp.CustomerID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Invoices
// @Description  List invoices filtered by customer and status
// @Tags         invoices
// @Produce      json
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        status       query  string  false  "Status (ACTIVE or VOID)"
// @Param        page_token   query  string  false  "Page Token"
// @Param        page_size    query  int     false  "Page Size"
// @Success      200  {object}  invoicedomain.ListInvoiceResponse
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	var query invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Invoice
// @Description  Get invoice by ID with nested items and charges
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id} [get]
func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
