package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/internal/serviceorder/domain"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.ServiceOrder) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_orders (id, os_number, customer_id, technician, description,
			status, discount, surcharge, total, payment_method, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OSNumber,
		order.CustomerID,
		order.Technician,
		order.Description,
		order.Status,
		order.Discount,
		order.Surcharge,
		order.Total,
		order.PaymentMethod,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, order *domain.ServiceOrder) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE service_orders SET technician = ?, description = ?, status = ?,
			discount = ?, surcharge = ?, total = ?, payment_method = ?, updated_at = ?
		 WHERE id = ?`,
		order.Technician,
		order.Description,
		order.Status,
		order.Discount,
		order.Surcharge,
		order.Total,
		order.PaymentMethod,
		order.UpdatedAt,
		order.ID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.ServiceOrderItem) error {
	for i := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO service_order_items (id, order_id, product_id, product_name, unit_price, quantity, total)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			items[i].ID,
			items[i].OrderID,
			items[i].ProductID,
			items[i].ProductName,
			items[i].UnitPrice,
			items[i].Quantity,
			items[i].Total,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM service_order_items WHERE order_id = ?`, orderID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceOrder, error) {
	var order domain.ServiceOrder
	err := db.WithContext(ctx).Raw(
		`SELECT id, os_number, customer_id, technician, description, status,
			discount, surcharge, total, payment_method, created_at, updated_at
		 FROM service_orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]domain.ServiceOrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var items []domain.ServiceOrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, product_name, unit_price, quantity, total
		 FROM service_order_items WHERE order_id IN ? ORDER BY id`,
		orderIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// LastOSNumber returns the number of the most recently created order, matching
// how new numbers were always derived. Callers run it inside the same
// transaction as the insert; the unique index on os_number catches the rest.
func (r *repo) LastOSNumber(ctx context.Context, db *gorm.DB) (string, error) {
	var last string
	err := db.WithContext(ctx).Raw(
		`SELECT os_number FROM service_orders ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&last).Error
	if err != nil {
		return "", err
	}
	return last, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListServiceOrderFilter, page pagination.Pagination) ([]*domain.ServiceOrder, error) {
	var orders []*domain.ServiceOrder
	stmt := db.WithContext(ctx).Model(&domain.ServiceOrder{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		stmt = stmt.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("created_at <= ?", *filter.To)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		after, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", after, after, afterID)
	}
	if page.PageSize > 0 {
		stmt = stmt.Limit(page.PageSize + 1)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
