package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	productdomain "github.com/taoerp/taoerp/internal/product/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDemoData inserts a small starter dataset on first boot. It is
// idempotent: once any person exists the seed is skipped entirely.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&persondomain.Person{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		people := []persondomain.Person{
			{
				ID:        node.Generate(),
				Name:      "Walk-in Customer",
				Role:      persondomain.RoleCustomer,
				Metadata:  datatypes.JSONMap{},
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:        node.Generate(),
				Name:      "Parts Warehouse",
				Role:      persondomain.RoleSupplier,
				Metadata:  datatypes.JSONMap{},
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		for i := range people {
			if err := tx.WithContext(ctx).Create(&people[i]).Error; err != nil {
				return err
			}
		}

		stock := 10.0
		minStock := 2.0
		products := []productdomain.Product{
			{
				ID:        node.Generate(),
				Code:      "LABOR",
				Name:      "Bench labor",
				Kind:      productdomain.KindService,
				SellPrice: 50,
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:        node.Generate(),
				Code:      "SCREEN-GENERIC",
				Name:      "Generic replacement screen",
				Kind:      productdomain.KindProduct,
				CostPrice: 30,
				SellPrice: 80,
				Stock:     &stock,
				MinStock:  &minStock,
				Unit:      "pc",
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		for i := range products {
			if err := tx.WithContext(ctx).Create(&products[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
