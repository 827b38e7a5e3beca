package domain

import (
	"context"
	"errors"
	"time"

	"github.com/taoerp/taoerp/pkg/db/pagination"
)

type CreatePurchaseRequest struct {
	SupplierID   string
	Item         string
	Invoice      string
	Installments int
	Total        float64 // grand total, split across installments
	FirstDueDate time.Time
	// Status is the initial intent; paid only ever applies to the first
	// installment, the rest always start as forecast.
	Status Status
	// ReceiptName attaches a receipt to the first installment at creation.
	ReceiptName string
}

type UpdatePurchaseRequest struct {
	ID          string
	SupplierID  *string
	Item        *string
	Invoice     *string
	Total       *float64
	PaymentDate *time.Time
	Status      *Status
}

type MarkPaidRequest struct {
	ID string
}

type AttachReceiptRequest struct {
	ID       string
	Filename string
}

type GetPurchaseRequest struct {
	ID string
}

type ListPurchaseRequest struct {
	PageToken  string
	PageSize   int32
	Status     Status
	SupplierID string
	// Month restricts to installments due inside the given month.
	Month *time.Time
}

type ListPurchaseFilter struct {
	Status     Status
	SupplierID string
	DueFrom    *time.Time
	DueTo      *time.Time
}

type ListPurchaseResponse struct {
	pagination.PageInfo
	Purchases []Purchase `json:"purchases"`
}

type Service interface {
	CreateBatch(context.Context, CreatePurchaseRequest) ([]Purchase, error)
	Update(context.Context, UpdatePurchaseRequest) (Purchase, error)
	MarkPaid(context.Context, MarkPaidRequest) (Purchase, error)
	AttachReceipt(context.Context, AttachReceiptRequest) (Purchase, error)
	GetByID(context.Context, GetPurchaseRequest) (Purchase, error)
	List(context.Context, ListPurchaseRequest) (ListPurchaseResponse, error)
}

var (
	ErrInvalidInstallments = errors.New("invalid_installments")
	ErrInvalidTotal        = errors.New("invalid_total")
	ErrInvalidItem         = errors.New("invalid_item")
	ErrSupplierNotFound    = errors.New("supplier_not_found")
	ErrInvalidSupplierRole = errors.New("invalid_supplier_role")
	ErrPaidImmutable       = errors.New("paid_immutable")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidFilename     = errors.New("invalid_filename")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
