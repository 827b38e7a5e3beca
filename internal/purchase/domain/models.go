package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	// StatusForecast marks an installment that is expected but not yet settled.
	StatusForecast Status = "forecast"
	StatusPaid     Status = "paid"
)

func (s Status) Valid() bool {
	return s == StatusForecast || s == StatusPaid
}

// Purchase is one installment of an expense. A purchase entered with N
// installments becomes N sibling rows sharing item/supplier/invoice, each
// carrying the per-installment amount, its own due date and an "i/N" label.
type Purchase struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SupplierID   snowflake.ID `gorm:"not null;index" json:"supplier_id"`
	Item         string       `gorm:"not null" json:"item"`
	Invoice      string       `json:"invoice,omitempty"`
	Installment  string       `gorm:"not null" json:"installment"`
	Total        float64      `gorm:"not null" json:"total"`
	PaymentDate  time.Time    `gorm:"not null;index" json:"payment_date"`
	Status       Status       `gorm:"not null;index" json:"status"`
	ReceiptToken *string      `json:"receipt_token,omitempty"`
	ReceiptName  *string      `json:"receipt_name,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Purchase) TableName() string { return "purchases" }

// AddMonths advances by calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month = Feb 28/29), unlike time.AddDate which normalizes.
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}
