package domain

import (
	"context"
	"errors"
)

var ErrInvalidPeriod = errors.New("invalid_period")

// StatusCount is the number of service orders currently in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// OrderStats summarizes the service order book for one month.
type OrderStats struct {
	Open           int64         `json:"open"`
	DeliveredMonth int64         `json:"delivered_month"`
	RevenueMonth   float64       `json:"revenue_month"`
	ByStatus       []StatusCount `json:"by_status"`
}

// PurchaseStats summarizes forecast and settled spending for one month.
type PurchaseStats struct {
	ForecastMonth float64 `json:"forecast_month"`
	PaidMonth     float64 `json:"paid_month"`
	OpenCount     int64   `json:"open_count"`
}

// Summary is the aggregate dashboard payload.
type Summary struct {
	Period    string        `json:"period"`
	Orders    OrderStats    `json:"orders"`
	Purchases PurchaseStats `json:"purchases"`
	LowStock  int64         `json:"low_stock"`
}

// MonthlyCashflow is a single month of revenue against purchase spending.
type MonthlyCashflow struct {
	Period   string  `json:"period"`
	Revenue  float64 `json:"revenue"`
	Forecast float64 `json:"forecast"`
	Paid     float64 `json:"paid"`
}

type CashflowResponse struct {
	Months []MonthlyCashflow `json:"months"`
}

type SummaryRequest struct {
	// Period is "2006-01"; empty means the current month.
	Period string
}

type CashflowRequest struct {
	// Year as "2006"; empty means the current year.
	Year string
}

type Service interface {
	Summary(ctx context.Context, req SummaryRequest) (Summary, error)
	Cashflow(ctx context.Context, req CashflowRequest) (CashflowResponse, error)
}
