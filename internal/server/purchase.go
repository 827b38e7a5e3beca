package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	purchasedomain "github.com/taoerp/taoerp/internal/purchase/domain"
	"github.com/taoerp/taoerp/pkg/db/pagination"
)

type createPurchaseRequest struct {
	SupplierID   string  `json:"supplier_id"`
	Item         string  `json:"item"`
	Invoice      string  `json:"invoice"`
	Installments int     `json:"installments"`
	Total        float64 `json:"total"`
	FirstDueDate string  `json:"first_due_date"`
	Status       string  `json:"status"`
	ReceiptName  string  `json:"receipt_name"`
}

func (s *Server) CreatePurchase(c *gin.Context) {
	var req createPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	firstDue, err := parseOptionalTime(req.FirstDueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("first_due_date", "invalid_first_due_date", "invalid first_due_date"))
		return
	}
	if firstDue == nil {
		AbortWithError(c, newValidationError("first_due_date", "invalid_first_due_date", "first_due_date is required"))
		return
	}

	installments := req.Installments
	if installments == 0 {
		installments = 1
	}

	resp, err := s.purchaseSvc.CreateBatch(c.Request.Context(), purchasedomain.CreatePurchaseRequest{
		SupplierID:   strings.TrimSpace(req.SupplierID),
		Item:         strings.TrimSpace(req.Item),
		Invoice:      strings.TrimSpace(req.Invoice),
		Installments: installments,
		Total:        req.Total,
		FirstDueDate: *firstDue,
		Status:       purchasedomain.Status(strings.TrimSpace(req.Status)),
		ReceiptName:  strings.TrimSpace(req.ReceiptName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"purchases": resp}})
}

type updatePurchaseRequest struct {
	SupplierID  *string  `json:"supplier_id"`
	Item        *string  `json:"item"`
	Invoice     *string  `json:"invoice"`
	Total       *float64 `json:"total"`
	PaymentDate *string  `json:"payment_date"`
	Status      *string  `json:"status"`
}

func (s *Server) UpdatePurchase(c *gin.Context) {
	var req updatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := purchasedomain.UpdatePurchaseRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		SupplierID: req.SupplierID,
		Item:       req.Item,
		Invoice:    req.Invoice,
		Total:      req.Total,
	}
	if req.PaymentDate != nil {
		parsed, err := parseOptionalTime(*req.PaymentDate, false)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment_date"))
			return
		}
		update.PaymentDate = parsed
	}
	if req.Status != nil {
		status := purchasedomain.Status(strings.TrimSpace(*req.Status))
		update.Status = &status
	}

	resp, err := s.purchaseSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkPurchasePaid(c *gin.Context) {
	resp, err := s.purchaseSvc.MarkPaid(c.Request.Context(), purchasedomain.MarkPaidRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type attachReceiptRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) AttachPurchaseReceipt(c *gin.Context) {
	var req attachReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.purchaseSvc.AttachReceipt(c.Request.Context(), purchasedomain.AttachReceiptRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Filename: strings.TrimSpace(req.Filename),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPurchaseByID(c *gin.Context) {
	resp, err := s.purchaseSvc.GetByID(c.Request.Context(), purchasedomain.GetPurchaseRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPurchases(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		SupplierID string `form:"supplier_id"`
		Month      string `form:"month"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := purchasedomain.ListPurchaseRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		Status:     purchasedomain.Status(strings.TrimSpace(query.Status)),
		SupplierID: strings.TrimSpace(query.SupplierID),
	}
	if value := strings.TrimSpace(query.Month); value != "" {
		parsed, err := time.Parse("2006-01", value)
		if err != nil {
			AbortWithError(c, newValidationError("month", "invalid_month", "invalid month"))
			return
		}
		req.Month = &parsed
	}

	resp, err := s.purchaseSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderPurchaseReceipt(c *gin.Context) {
	doc, err := s.receiptSvc.PurchaseReceipt(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

func isPurchaseValidationError(err error) bool {
	switch err {
	case purchasedomain.ErrInvalidInstallments,
		purchasedomain.ErrInvalidTotal,
		purchasedomain.ErrInvalidItem,
		purchasedomain.ErrInvalidStatus,
		purchasedomain.ErrInvalidFilename,
		purchasedomain.ErrSupplierNotFound,
		purchasedomain.ErrInvalidSupplierRole,
		purchasedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
