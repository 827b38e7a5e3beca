package domain

import (
	"context"
	"errors"
	"time"

	"github.com/taoerp/taoerp/pkg/db/pagination"
)

// ItemInput references a catalog product; UnitPrice overrides the product's
// current sell price when set, otherwise the price is captured from the catalog
// at save time.
type ItemInput struct {
	ProductID string
	Quantity  float64
	UnitPrice *float64
}

type CreateServiceOrderRequest struct {
	CustomerID  string
	Technician  string
	Description string
	Items       []ItemInput
	Discount    float64
	Surcharge   float64
}

type UpdateServiceOrderRequest struct {
	ID          string
	Technician  *string
	Description *string
	Items       []ItemInput // nil leaves items untouched; non-nil replaces them
	Discount    *float64
	Surcharge   *float64
}

type ChangeStatusRequest struct {
	ID     string
	Status Status
	// Technician supplies the missing assignment atomically with the move.
	Technician string
}

type DeliverRequest struct {
	ID            string
	PaymentMethod PaymentMethod
	Technician    string
}

type CancelRequest struct {
	ID string
}

type GetServiceOrderRequest struct {
	ID string
}

type DateFilter string

const (
	DateFilterAll       DateFilter = "all"
	DateFilterToday     DateFilter = "today"
	DateFilterYesterday DateFilter = "yesterday"
)

type ListServiceOrderRequest struct {
	PageToken  string
	PageSize   int32
	Status     Status
	DateFilter DateFilter
}

type ListServiceOrderFilter struct {
	Status Status
	From   *time.Time // inclusive
	To     *time.Time // inclusive
}

type ListServiceOrderResponse struct {
	pagination.PageInfo
	Orders []ServiceOrder `json:"orders"`
}

type Service interface {
	Create(context.Context, CreateServiceOrderRequest) (ServiceOrder, error)
	Update(context.Context, UpdateServiceOrderRequest) (ServiceOrder, error)
	ChangeStatus(context.Context, ChangeStatusRequest) (ServiceOrder, error)
	Deliver(context.Context, DeliverRequest) (ServiceOrder, error)
	Cancel(context.Context, CancelRequest) (ServiceOrder, error)
	GetByID(context.Context, GetServiceOrderRequest) (ServiceOrder, error)
	List(context.Context, ListServiceOrderRequest) (ListServiceOrderResponse, error)
}

var (
	ErrNoItems               = errors.New("at_least_one_item_required")
	ErrInvalidQuantity       = errors.New("invalid_quantity")
	ErrCustomerNotFound      = errors.New("customer_not_found")
	ErrProductNotFound       = errors.New("product_not_found")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrTechnicianRequired    = errors.New("technician_required")
	ErrPaymentMethodRequired = errors.New("payment_method_required")
	ErrInvalidPaymentMethod  = errors.New("invalid_payment_method")
	ErrCancelConfirmRequired = errors.New("cancel_confirm_required")
	ErrOrderTerminal         = errors.New("order_terminal")
	ErrNumberConflict        = errors.New("os_number_conflict")
	ErrInvalidDateFilter     = errors.New("invalid_date_filter")
	ErrInvalidID             = errors.New("invalid_id")
	ErrNotFound              = errors.New("not_found")
)
