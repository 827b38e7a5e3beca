package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dashboarddomain "github.com/taoerp/taoerp/internal/dashboard/domain"
)

func (s *Server) GetDashboardSummary(c *gin.Context) {
	resp, err := s.dashboardSvc.Summary(c.Request.Context(), dashboarddomain.SummaryRequest{
		Period: strings.TrimSpace(c.Query("period")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDashboardCashflow(c *gin.Context) {
	resp, err := s.dashboardSvc.Cashflow(c.Request.Context(), dashboarddomain.CashflowRequest{
		Year: strings.TrimSpace(c.Query("year")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
