package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/internal/person/domain"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, person *domain.Person) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO people (id, name, phone, email, tax_id, role, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		person.ID,
		person.Name,
		person.Phone,
		person.Email,
		person.TaxID,
		person.Role,
		person.Metadata,
		person.CreatedAt,
		person.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, person *domain.Person) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE people SET name = ?, phone = ?, email = ?, tax_id = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		person.Name,
		person.Phone,
		person.Email,
		person.TaxID,
		person.Role,
		person.UpdatedAt,
		person.ID,
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
	result := db.WithContext(ctx).Exec(`DELETE FROM people WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Person, error) {
	var person domain.Person
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, phone, email, tax_id, role, metadata, created_at, updated_at
		 FROM people WHERE id = ?`,
		id,
	).Scan(&person).Error
	if err != nil {
		return nil, err
	}
	if person.ID == 0 {
		return nil, nil
	}
	return &person, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListPersonFilter, page pagination.Pagination) ([]*domain.Person, error) {
	var people []*domain.Person
	stmt := db.WithContext(ctx).Model(&domain.Person{})
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
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
		Find(&people).Error
	if err != nil {
		return nil, err
	}
	return people, nil
}
