package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusInProgress    Status = "in_progress"
	StatusAwaitingParts Status = "awaiting_parts"
	StatusReady         Status = "ready"
	StatusDelivered     Status = "delivered"
	StatusCancelled     Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusAwaitingParts, StatusReady, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal statuses accept no further transitions or edits.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentPix || m == PaymentCard || m == PaymentCash
}

// ServiceOrder is the unit of billable work. The customer is referenced by id;
// product data is copied into items at entry time (snapshot semantics), so later
// catalog changes never rewrite history.
type ServiceOrder struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	OSNumber      string         `gorm:"column:os_number;uniqueIndex;not null" json:"os_number"`
	CustomerID    snowflake.ID   `gorm:"not null;index" json:"customer_id"`
	Technician    string         `json:"technician,omitempty"`
	Description   string         `json:"description,omitempty"`
	Status        Status         `gorm:"not null;index" json:"status"`
	Discount      float64        `gorm:"not null;default:0" json:"discount"`
	Surcharge     float64        `gorm:"not null;default:0" json:"surcharge"`
	Total         float64        `gorm:"not null;default:0" json:"total"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []ServiceOrderItem `gorm:"-" json:"items,omitempty"`
}

func (ServiceOrder) TableName() string { return "service_orders" }

type ServiceOrderItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID   snowflake.ID `gorm:"not null" json:"product_id"`
	ProductName string       `gorm:"not null" json:"product_name"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	Total       float64      `gorm:"not null" json:"total"`
}

func (ServiceOrderItem) TableName() string { return "service_order_items" }

// ComputeTotal is the single totals law: sum of line totals minus discount plus
// surcharge. Negative results are not rejected at this layer.
func ComputeTotal(items []ServiceOrderItem, discount, surcharge float64) float64 {
	sum := 0.0
	for _, item := range items {
		sum += item.Total
	}
	return sum - discount + surcharge
}

const firstOSNumber = "OS-0001"

// NextOSNumber parses the numeric suffix of the most recent order number and
// increments it, zero-padded to four digits.
func NextOSNumber(last string) string {
	if last == "" {
		return firstOSNumber
	}
	parts := strings.SplitN(last, "-", 2)
	if len(parts) != 2 {
		return firstOSNumber
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return firstOSNumber
	}
	return fmt.Sprintf("OS-%04d", n+1)
}
