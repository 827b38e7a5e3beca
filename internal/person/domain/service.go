package domain

import (
	"context"
	"errors"

	"github.com/taoerp/taoerp/pkg/db/pagination"
)

type CreatePersonRequest struct {
	Name  string
	Phone string
	Email string
	TaxID string
	Role  Role
}

type UpdatePersonRequest struct {
	ID    string
	Name  *string
	Phone *string
	Email *string
	TaxID *string
	Role  *Role
}

type GetPersonRequest struct {
	ID string
}

type DeletePersonRequest struct {
	ID string
}

type ListPersonRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Role      Role
}

type ListPersonFilter struct {
	Name string
	Role Role
}

type ListPersonResponse struct {
	pagination.PageInfo
	People []Person `json:"people"`
}

type Service interface {
	Create(context.Context, CreatePersonRequest) (Person, error)
	Update(context.Context, UpdatePersonRequest) (Person, error)
	Delete(context.Context, DeletePersonRequest) error
	GetByID(context.Context, GetPersonRequest) (Person, error)
	List(context.Context, ListPersonRequest) (ListPersonResponse, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidRole = errors.New("invalid_role")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)
