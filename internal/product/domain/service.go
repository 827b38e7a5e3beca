package domain

import (
	"context"
	"errors"

	"github.com/taoerp/taoerp/pkg/db/pagination"
)

type CreateProductRequest struct {
	Code        string
	Name        string
	Description string
	Barcode     string
	Kind        Kind
	Category    string
	CostPrice   float64
	SellPrice   float64
	Stock       *float64
	MinStock    *float64
	Unit        string
}

type UpdateProductRequest struct {
	ID          string
	Code        *string
	Name        *string
	Description *string
	Barcode     *string
	Category    *string
	CostPrice   *float64
	SellPrice   *float64
	Stock       *float64
	MinStock    *float64
	Unit        *string
}

type GetProductRequest struct {
	ID string
}

type DeleteProductRequest struct {
	ID string
}

type ListProductRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Kind      Kind
	Category  string
}

type ListProductFilter struct {
	Name     string
	Kind     Kind
	Category string
}

type ListProductResponse struct {
	pagination.PageInfo
	Products []Product `json:"products"`
}

type Service interface {
	Create(context.Context, CreateProductRequest) (Product, error)
	Update(context.Context, UpdateProductRequest) (Product, error)
	Delete(context.Context, DeleteProductRequest) error
	GetByID(context.Context, GetProductRequest) (Product, error)
	List(context.Context, ListProductRequest) (ListProductResponse, error)
	LowStock(context.Context) ([]Product, error)
}

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidKind        = errors.New("invalid_kind")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrServiceStockFields = errors.New("service_stock_fields")
	ErrCodeTaken          = errors.New("code_taken")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
)
