package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/internal/purchase/domain"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, purchase *domain.Purchase) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO purchases (id, supplier_id, item, invoice, installment, total,
			payment_date, status, receipt_token, receipt_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		purchase.ID,
		purchase.SupplierID,
		purchase.Item,
		purchase.Invoice,
		purchase.Installment,
		purchase.Total,
		purchase.PaymentDate,
		purchase.Status,
		purchase.ReceiptToken,
		purchase.ReceiptName,
		purchase.CreatedAt,
		purchase.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, purchase *domain.Purchase) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE purchases SET supplier_id = ?, item = ?, invoice = ?, total = ?,
			payment_date = ?, status = ?, receipt_token = ?, receipt_name = ?, updated_at = ?
		 WHERE id = ?`,
		purchase.SupplierID,
		purchase.Item,
		purchase.Invoice,
		purchase.Total,
		purchase.PaymentDate,
		purchase.Status,
		purchase.ReceiptToken,
		purchase.ReceiptName,
		purchase.UpdatedAt,
		purchase.ID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Purchase, error) {
	var purchase domain.Purchase
	err := db.WithContext(ctx).Raw(
		`SELECT id, supplier_id, item, invoice, installment, total, payment_date,
			status, receipt_token, receipt_name, created_at, updated_at
		 FROM purchases WHERE id = ?`,
		id,
	).Scan(&purchase).Error
	if err != nil {
		return nil, err
	}
	if purchase.ID == 0 {
		return nil, nil
	}
	return &purchase, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListPurchaseFilter, page pagination.Pagination) ([]*domain.Purchase, error) {
	var purchases []*domain.Purchase
	stmt := db.WithContext(ctx).Model(&domain.Purchase{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != "" {
		stmt = stmt.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.DueFrom != nil {
		stmt = stmt.Where("payment_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		stmt = stmt.Where("payment_date <= ?", *filter.DueTo)
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
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}
