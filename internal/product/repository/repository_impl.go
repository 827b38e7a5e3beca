package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/internal/product/domain"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, code, name, description, barcode, kind, category,
			cost_price, sell_price, stock, min_stock, unit, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Code,
		product.Name,
		product.Description,
		product.Barcode,
		product.Kind,
		product.Category,
		product.CostPrice,
		product.SellPrice,
		product.Stock,
		product.MinStock,
		product.Unit,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET code = ?, name = ?, description = ?, barcode = ?, category = ?,
			cost_price = ?, sell_price = ?, stock = ?, min_stock = ?, unit = ?, updated_at = ?
		 WHERE id = ?`,
		product.Code,
		product.Name,
		product.Description,
		product.Barcode,
		product.Category,
		product.CostPrice,
		product.SellPrice,
		product.Stock,
		product.MinStock,
		product.Unit,
		product.UpdatedAt,
		product.ID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	result := db.WithContext(ctx).Exec(`DELETE FROM products WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, description, barcode, kind, category,
			cost_price, sell_price, stock, min_stock, unit, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	return &product, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListProductFilter, page pagination.Pagination) ([]*domain.Product, error) {
	var products []*domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
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
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repo) FindBelowMinStock(ctx context.Context, db *gorm.DB) ([]*domain.Product, error) {
	var products []*domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, description, barcode, kind, category,
			cost_price, sell_price, stock, min_stock, unit, created_at, updated_at
		 FROM products
		 WHERE kind = ? AND stock IS NOT NULL AND min_stock IS NOT NULL AND stock < min_stock
		 ORDER BY name`,
		domain.KindProduct,
	).Scan(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
