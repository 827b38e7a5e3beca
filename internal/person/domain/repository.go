package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, person *Person) error
	Update(ctx context.Context, db *gorm.DB, person *Person) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Person, error)
	List(ctx context.Context, db *gorm.DB, filter ListPersonFilter, page pagination.Pagination) ([]*Person, error)
}
