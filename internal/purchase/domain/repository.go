package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, purchase *Purchase) error
	Update(ctx context.Context, db *gorm.DB, purchase *Purchase) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Purchase, error)
	List(ctx context.Context, db *gorm.DB, filter ListPurchaseFilter, page pagination.Pagination) ([]*Purchase, error)
}
