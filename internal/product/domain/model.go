package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindProduct Kind = "product"
	KindService Kind = "service"
)

func (k Kind) Valid() bool {
	return k == KindProduct || k == KindService
}

// Product is a catalog entry. Stock, MinStock and Unit only exist for physical
// products; for services they are stored as NULL and rejected on input.
type Product struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"uniqueIndex;not null" json:"code"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description,omitempty"`
	Barcode     string       `json:"barcode,omitempty"`
	Kind        Kind         `gorm:"not null;index" json:"kind"`
	Category    string       `gorm:"index" json:"category,omitempty"`
	CostPrice   float64      `gorm:"not null;default:0" json:"cost_price"`
	SellPrice   float64      `gorm:"not null;default:0" json:"sell_price"`
	Stock       *float64     `json:"stock,omitempty"`
	MinStock    *float64     `gorm:"column:min_stock" json:"min_stock,omitempty"`
	Unit        string       `json:"unit,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
