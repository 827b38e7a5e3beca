package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"gorm.io/gorm"
)

// Repository receives the gorm handle explicitly so the service can run the
// order row and its items inside one transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *ServiceOrder) error
	Update(ctx context.Context, db *gorm.DB, order *ServiceOrder) error
	InsertItems(ctx context.Context, db *gorm.DB, items []ServiceOrderItem) error
	DeleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceOrder, error)
	FindItems(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]ServiceOrderItem, error)
	LastOSNumber(ctx context.Context, db *gorm.DB) (string, error)
	List(ctx context.Context, db *gorm.DB, filter ListServiceOrderFilter, page pagination.Pagination) ([]*ServiceOrder, error)
}
