package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// @Summary      Ledger Overview
// @Description  Summarize all non-zero customer balances
// @Tags         ledger
// @Produce      json
// @Success      200  {object}  ledgerdomain.Overview
// @Router       /ledger/overview [get]
func (s *Server) GetLedgerOverview(c *gin.Context) {
	if s.ledgerSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	resp, err := s.ledgerSvc.Overview(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Customer History
// @Description  Merged invoice and credit timeline for one customer, newest first
// @Tags         ledger
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  ledgerdomain.History
// @Router       /customers/{id}/history [get]
func (s *Server) GetCustomerHistory(c *gin.Context) {
	if s.ledgerSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	resp, err := s.ledgerSvc.CustomerHistory(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
