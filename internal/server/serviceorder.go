package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/taoerp/taoerp/internal/serviceorder/domain"
	"github.com/taoerp/taoerp/pkg/db/pagination"
)

type serviceOrderItemRequest struct {
	ProductID string   `json:"product_id"`
	Quantity  float64  `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
}

func toItemInputs(items []serviceOrderItemRequest) []orderdomain.ItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]orderdomain.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, orderdomain.ItemInput{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return inputs
}

type createServiceOrderRequest struct {
	CustomerID  string                    `json:"customer_id"`
	Technician  string                    `json:"technician"`
	Description string                    `json:"description"`
	Items       []serviceOrderItemRequest `json:"items"`
	Discount    float64                   `json:"discount"`
	Surcharge   float64                   `json:"surcharge"`
}

func (s *Server) CreateServiceOrder(c *gin.Context) {
	var req createServiceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateServiceOrderRequest{
		CustomerID:  strings.TrimSpace(req.CustomerID),
		Technician:  strings.TrimSpace(req.Technician),
		Description: strings.TrimSpace(req.Description),
		Items:       toItemInputs(req.Items),
		Discount:    req.Discount,
		Surcharge:   req.Surcharge,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateServiceOrderRequest struct {
	Technician  *string                   `json:"technician"`
	Description *string                   `json:"description"`
	Items       []serviceOrderItemRequest `json:"items"`
	Discount    *float64                  `json:"discount"`
	Surcharge   *float64                  `json:"surcharge"`
}

func (s *Server) UpdateServiceOrder(c *gin.Context) {
	var req updateServiceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Update(c.Request.Context(), orderdomain.UpdateServiceOrderRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Technician:  req.Technician,
		Description: req.Description,
		Items:       toItemInputs(req.Items),
		Discount:    req.Discount,
		Surcharge:   req.Surcharge,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type changeStatusRequest struct {
	Status     string `json:"status"`
	Technician string `json:"technician"`
}

func (s *Server) ChangeServiceOrderStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.ChangeStatus(c.Request.Context(), orderdomain.ChangeStatusRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		Status:     orderdomain.Status(strings.TrimSpace(req.Status)),
		Technician: strings.TrimSpace(req.Technician),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type deliverRequest struct {
	PaymentMethod string `json:"payment_method"`
	Technician    string `json:"technician"`
}

func (s *Server) DeliverServiceOrder(c *gin.Context) {
	var req deliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Deliver(c.Request.Context(), orderdomain.DeliverRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		PaymentMethod: orderdomain.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
		Technician:    strings.TrimSpace(req.Technician),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelServiceOrder(c *gin.Context) {
	resp, err := s.orderSvc.Cancel(c.Request.Context(), orderdomain.CancelRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetServiceOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.GetByID(c.Request.Context(), orderdomain.GetServiceOrderRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListServiceOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status string `form:"status"`
		Date   string `form:"date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dateFilter := orderdomain.DateFilterAll
	if value := strings.TrimSpace(query.Date); value != "" {
		dateFilter = orderdomain.DateFilter(value)
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListServiceOrderRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		Status:     orderdomain.Status(strings.TrimSpace(query.Status)),
		DateFilter: dateFilter,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderServiceOrderReceipt(c *gin.Context) {
	doc, err := s.receiptSvc.OrderReceipt(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

func isServiceOrderValidationError(err error) bool {
	switch err {
	case orderdomain.ErrNoItems,
		orderdomain.ErrInvalidQuantity,
		orderdomain.ErrCustomerNotFound,
		orderdomain.ErrProductNotFound,
		orderdomain.ErrInvalidStatus,
		orderdomain.ErrTechnicianRequired,
		orderdomain.ErrPaymentMethodRequired,
		orderdomain.ErrInvalidPaymentMethod,
		orderdomain.ErrCancelConfirmRequired,
		orderdomain.ErrInvalidDateFilter,
		orderdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
