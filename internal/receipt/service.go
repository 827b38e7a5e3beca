package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taoerp/taoerp/internal/config"
	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	purchasedomain "github.com/taoerp/taoerp/internal/purchase/domain"
	orderdomain "github.com/taoerp/taoerp/internal/serviceorder/domain"
	"github.com/taoerp/taoerp/internal/settings"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Document is a rendered receipt ready to stream to the client.
type Document struct {
	Filename string
	Content  []byte
}

type Service interface {
	OrderReceipt(ctx context.Context, orderID string) (Document, error)
	PurchaseReceipt(ctx context.Context, purchaseID string) (Document, error)
}

type Params struct {
	fx.In

	Cfg       config.Config
	Log       *zap.Logger
	Orders    orderdomain.Service
	Purchases purchasedomain.Service
	People    persondomain.Service
	Settings  settings.Service
}

type service struct {
	cfg       config.Config
	log       *zap.Logger
	orders    orderdomain.Service
	purchases purchasedomain.Service
	people    persondomain.Service
	settings  settings.Service
}

func New(p Params) Service {
	return &service{
		cfg:       p.Cfg,
		log:       p.Log.Named("receipt.service"),
		orders:    p.Orders,
		purchases: p.Purchases,
		people:    p.People,
		settings:  p.Settings,
	}
}

func (s *service) OrderReceipt(ctx context.Context, orderID string) (Document, error) {
	order, err := s.orders.GetByID(ctx, orderdomain.GetServiceOrderRequest{ID: orderID})
	if err != nil {
		return Document{}, err
	}

	customerName := ""
	if customer, err := s.people.GetByID(ctx, persondomain.GetPersonRequest{ID: order.CustomerID.String()}); err == nil {
		customerName = customer.Name
	}

	workspace, err := s.settings.Get(ctx)
	if err != nil {
		return Document{}, err
	}

	subtotal := 0.0
	items := make([]ReceiptItem, 0, len(order.Items))
	for _, item := range order.Items {
		subtotal += item.Total
		items = append(items, ReceiptItem{
			Description: item.ProductName,
			Qty:         formatQty(item.Quantity),
			UnitPrice:   formatAmount(item.UnitPrice),
			Amount:      formatAmount(item.Total),
		})
	}

	payment := ""
	if order.PaymentMethod != nil {
		payment = string(*order.PaymentMethod)
	}

	content, err := RenderOrderReceipt(OrderReceiptData{
		AppName:      workspace.AppName,
		OSNumber:     order.OSNumber,
		CustomerName: customerName,
		Technician:   order.Technician,
		IssuedAt:     order.CreatedAt.Format("02/01/2006"),
		Status:       string(order.Status),
		Items:        items,
		Subtotal:     formatAmount(subtotal),
		Discount:     formatAmount(order.Discount),
		Surcharge:    formatAmount(order.Surcharge),
		Total:        formatAmount(order.Total),
		Payment:      payment,
	})
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Filename: fmt.Sprintf("%s.pdf", strings.ToLower(order.OSNumber)),
		Content:  content,
	}
	s.persist(doc)
	return doc, nil
}

func (s *service) PurchaseReceipt(ctx context.Context, purchaseID string) (Document, error) {
	purchase, err := s.purchases.GetByID(ctx, purchasedomain.GetPurchaseRequest{ID: purchaseID})
	if err != nil {
		return Document{}, err
	}

	supplierName := ""
	if supplier, err := s.people.GetByID(ctx, persondomain.GetPersonRequest{ID: purchase.SupplierID.String()}); err == nil {
		supplierName = supplier.Name
	}

	workspace, err := s.settings.Get(ctx)
	if err != nil {
		return Document{}, err
	}

	content, err := RenderPurchaseReceipt(PurchaseReceiptData{
		AppName:      workspace.AppName,
		SupplierName: supplierName,
		Item:         purchase.Item,
		Invoice:      purchase.Invoice,
		Installment:  purchase.Installment,
		DueDate:      purchase.PaymentDate.Format("02/01/2006"),
		Status:       string(purchase.Status),
		Total:        formatAmount(purchase.Total),
	})
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Filename: fmt.Sprintf("purchase-%s.pdf", purchase.ID.String()),
		Content:  content,
	}
	s.persist(doc)
	return doc, nil
}

// persist keeps a copy on disk when a receipt directory is configured. Failure
// to archive never fails the request.
func (s *service) persist(doc Document) {
	dir := strings.TrimSpace(s.cfg.ReceiptDir)
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Warn("failed to create receipt dir", zap.Error(err))
		return
	}
	path := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
		s.log.Warn("failed to archive receipt", zap.Error(err), zap.String("path", path))
	}
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatQty(value float64) string {
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d", int64(value))
	}
	return fmt.Sprintf("%.2f", value)
}

var Module = fx.Module("receipt.service",
	fx.Provide(New),
)
