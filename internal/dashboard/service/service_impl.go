package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/taoerp/taoerp/internal/clock"
	"github.com/taoerp/taoerp/internal/dashboard/domain"
	purchasedomain "github.com/taoerp/taoerp/internal/purchase/domain"
	orderdomain "github.com/taoerp/taoerp/internal/serviceorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
	}
}

type statusCountRow struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

type sumRow struct {
	Total float64 `gorm:"column:total"`
}

func (s *Service) Summary(ctx context.Context, req domain.SummaryRequest) (domain.Summary, error) {
	start, end, err := s.monthWindow(req.Period)
	if err != nil {
		return domain.Summary{}, err
	}

	summary := domain.Summary{Period: start.Format("2006-01")}

	var statusRows []statusCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(1) AS count
		 FROM service_orders
		 GROUP BY status`,
	).Scan(&statusRows).Error; err != nil {
		return domain.Summary{}, err
	}
	for _, row := range statusRows {
		status := strings.TrimSpace(row.Status)
		summary.Orders.ByStatus = append(summary.Orders.ByStatus, domain.StatusCount{
			Status: status,
			Count:  row.Count,
		})
		if !orderdomain.Status(status).Terminal() {
			summary.Orders.Open += row.Count
		}
	}

	var delivered statusCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS count
		 FROM service_orders
		 WHERE status = ? AND updated_at >= ? AND updated_at < ?`,
		orderdomain.StatusDelivered, start, end,
	).Scan(&delivered).Error; err != nil {
		return domain.Summary{}, err
	}
	summary.Orders.DeliveredMonth = delivered.Count

	var revenue sumRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total), 0) AS total
		 FROM service_orders
		 WHERE status = ? AND updated_at >= ? AND updated_at < ?`,
		orderdomain.StatusDelivered, start, end,
	).Scan(&revenue).Error; err != nil {
		return domain.Summary{}, err
	}
	summary.Orders.RevenueMonth = revenue.Total

	var forecast sumRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total), 0) AS total
		 FROM purchases
		 WHERE status = ? AND payment_date >= ? AND payment_date < ?`,
		purchasedomain.StatusForecast, start, end,
	).Scan(&forecast).Error; err != nil {
		return domain.Summary{}, err
	}
	summary.Purchases.ForecastMonth = forecast.Total

	var paid sumRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total), 0) AS total
		 FROM purchases
		 WHERE status = ? AND payment_date >= ? AND payment_date < ?`,
		purchasedomain.StatusPaid, start, end,
	).Scan(&paid).Error; err != nil {
		return domain.Summary{}, err
	}
	summary.Purchases.PaidMonth = paid.Total

	var openPurchases statusCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS count FROM purchases WHERE status = ?`,
		purchasedomain.StatusForecast,
	).Scan(&openPurchases).Error; err != nil {
		return domain.Summary{}, err
	}
	summary.Purchases.OpenCount = openPurchases.Count

	var lowStock statusCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS count
		 FROM products
		 WHERE kind = 'product' AND stock < min_stock`,
	).Scan(&lowStock).Error; err != nil {
		return domain.Summary{}, err
	}
	summary.LowStock = lowStock.Count

	return summary, nil
}

func (s *Service) Cashflow(ctx context.Context, req domain.CashflowRequest) (domain.CashflowResponse, error) {
	year := s.clock.Now().Year()
	if value := strings.TrimSpace(req.Year); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 2000 || parsed > 2200 {
			return domain.CashflowResponse{}, domain.ErrInvalidPeriod
		}
		year = parsed
	}

	months := make([]domain.MonthlyCashflow, 0, 12)
	for month := time.January; month <= time.December; month++ {
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)

		entry := domain.MonthlyCashflow{Period: start.Format("2006-01")}

		var revenue sumRow
		if err := s.db.WithContext(ctx).Raw(
			`SELECT COALESCE(SUM(total), 0) AS total
			 FROM service_orders
			 WHERE status = ? AND updated_at >= ? AND updated_at < ?`,
			orderdomain.StatusDelivered, start, end,
		).Scan(&revenue).Error; err != nil {
			return domain.CashflowResponse{}, err
		}
		entry.Revenue = revenue.Total

		var forecast sumRow
		if err := s.db.WithContext(ctx).Raw(
			`SELECT COALESCE(SUM(total), 0) AS total
			 FROM purchases
			 WHERE status = ? AND payment_date >= ? AND payment_date < ?`,
			purchasedomain.StatusForecast, start, end,
		).Scan(&forecast).Error; err != nil {
			return domain.CashflowResponse{}, err
		}
		entry.Forecast = forecast.Total

		var paid sumRow
		if err := s.db.WithContext(ctx).Raw(
			`SELECT COALESCE(SUM(total), 0) AS total
			 FROM purchases
			 WHERE status = ? AND payment_date >= ? AND payment_date < ?`,
			purchasedomain.StatusPaid, start, end,
		).Scan(&paid).Error; err != nil {
			return domain.CashflowResponse{}, err
		}
		entry.Paid = paid.Total

		months = append(months, entry)
	}

	return domain.CashflowResponse{Months: months}, nil
}

func (s *Service) monthWindow(period string) (time.Time, time.Time, error) {
	now := s.clock.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if value := strings.TrimSpace(period); value != "" {
		parsed, err := time.Parse("2006-01", value)
		if err != nil {
			return time.Time{}, time.Time{}, domain.ErrInvalidPeriod
		}
		start = parsed
	}
	return start, start.AddDate(0, 1, 0), nil
}
