package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/internal/clock"
	"github.com/taoerp/taoerp/internal/numlock"
	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	productdomain "github.com/taoerp/taoerp/internal/product/domain"
	"github.com/taoerp/taoerp/internal/serviceorder/domain"
	"github.com/taoerp/taoerp/internal/watch"
	"github.com/taoerp/taoerp/pkg/db"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const osNumberLockKey = "taoerp:os-number"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Repo        domain.Repository
	PersonRepo  persondomain.Repository
	ProductRepo productdomain.Repository
	Bus         *watch.Bus
	Locker      *numlock.Locker `optional:"true"`
}

// Service owns the order lifecycle. Delivering an order deliberately does not
// decrement product stock; stock is display-only reference data here.
type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	repo        domain.Repository
	personRepo  persondomain.Repository
	productRepo productdomain.Repository
	bus         *watch.Bus
	locker      *numlock.Locker
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("serviceorder.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		repo:        p.Repo,
		personRepo:  p.PersonRepo,
		productRepo: p.ProductRepo,
		bus:         p.Bus,
		locker:      p.Locker,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateServiceOrderRequest) (domain.ServiceOrder, error) {
	if len(req.Items) == 0 {
		return domain.ServiceOrder{}, domain.ErrNoItems
	}

	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.ServiceOrder{}, domain.ErrInvalidID
	}

	// Serialize number allocation across replicas when a locker is configured;
	// the unique index on os_number is the backstop otherwise.
	if s.locker != nil {
		token, ok, lockErr := s.locker.TryLock(ctx, osNumberLockKey, 5*time.Second)
		if lockErr == nil && ok {
			defer func() {
				_ = s.locker.Release(ctx, osNumberLockKey, token)
			}()
		}
	}

	now := s.clock.Now()
	order := domain.ServiceOrder{
		ID:          s.genID.Generate(),
		CustomerID:  customerID,
		Technician:  strings.TrimSpace(req.Technician),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.StatusPending,
		Discount:    req.Discount,
		Surcharge:   req.Surcharge,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.personRepo.FindByID(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrCustomerNotFound
		}

		items, err := s.buildItems(ctx, tx, order.ID, req.Items)
		if err != nil {
			return err
		}
		order.Items = items
		order.Total = domain.ComputeTotal(items, order.Discount, order.Surcharge)

		last, err := s.repo.LastOSNumber(ctx, tx)
		if err != nil {
			return err
		}
		order.OSNumber = domain.NextOSNumber(last)

		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ServiceOrder{}, domain.ErrNumberConflict
		}
		return domain.ServiceOrder{}, err
	}

	s.bus.Publish(watch.Event{Collection: "service_orders", Op: watch.OpCreate, ID: order.ID.String(), At: now})
	s.log.Info("service order created",
		zap.String("os_number", order.OSNumber),
		zap.Float64("total", order.Total),
	)
	return order, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateServiceOrderRequest) (domain.ServiceOrder, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	var updated domain.ServiceOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status.Terminal() {
			return domain.ErrOrderTerminal
		}

		if req.Technician != nil {
			order.Technician = strings.TrimSpace(*req.Technician)
		}
		if req.Description != nil {
			order.Description = strings.TrimSpace(*req.Description)
		}
		if req.Discount != nil {
			order.Discount = *req.Discount
		}
		if req.Surcharge != nil {
			order.Surcharge = *req.Surcharge
		}

		if req.Items != nil {
			if len(req.Items) == 0 {
				return domain.ErrNoItems
			}
			items, err := s.buildItems(ctx, tx, order.ID, req.Items)
			if err != nil {
				return err
			}
			if err := s.repo.DeleteItems(ctx, tx, order.ID); err != nil {
				return err
			}
			if err := s.repo.InsertItems(ctx, tx, items); err != nil {
				return err
			}
			order.Items = items
		} else {
			items, err := s.repo.FindItems(ctx, tx, []snowflake.ID{order.ID})
			if err != nil {
				return err
			}
			order.Items = items
		}

		order.Total = domain.ComputeTotal(order.Items, order.Discount, order.Surcharge)
		order.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}
		updated = *order
		return nil
	})
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	s.bus.Publish(watch.Event{Collection: "service_orders", Op: watch.OpUpdate, ID: updated.ID.String(), At: updated.UpdatedAt})
	return updated, nil
}

func (s *Service) ChangeStatus(ctx context.Context, req domain.ChangeStatusRequest) (domain.ServiceOrder, error) {
	if !req.Status.Valid() {
		return domain.ServiceOrder{}, domain.ErrInvalidStatus
	}
	switch req.Status {
	case domain.StatusDelivered:
		// Delivery captures a payment method; force callers through Deliver.
		return domain.ServiceOrder{}, domain.ErrPaymentMethodRequired
	case domain.StatusCancelled:
		return domain.ServiceOrder{}, domain.ErrCancelConfirmRequired
	}

	return s.transition(ctx, req.ID, req.Status, strings.TrimSpace(req.Technician), nil)
}

func (s *Service) Deliver(ctx context.Context, req domain.DeliverRequest) (domain.ServiceOrder, error) {
	if !req.PaymentMethod.Valid() {
		return domain.ServiceOrder{}, domain.ErrInvalidPaymentMethod
	}
	method := req.PaymentMethod
	return s.transition(ctx, req.ID, domain.StatusDelivered, strings.TrimSpace(req.Technician), &method)
}

func (s *Service) Cancel(ctx context.Context, req domain.CancelRequest) (domain.ServiceOrder, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	var cancelled domain.ServiceOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status.Terminal() {
			return domain.ErrOrderTerminal
		}

		order.Status = domain.StatusCancelled
		order.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}
		cancelled = *order
		return nil
	})
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	s.bus.Publish(watch.Event{Collection: "service_orders", Op: watch.OpUpdate, ID: cancelled.ID.String(), At: cancelled.UpdatedAt})
	s.log.Info("service order cancelled", zap.String("os_number", cancelled.OSNumber))
	return cancelled, nil
}

// transition applies the shared guards: terminal orders are frozen, and leaving
// pending requires a technician, supplied atomically when missing.
func (s *Service) transition(ctx context.Context, rawID string, status domain.Status, technician string, method *domain.PaymentMethod) (domain.ServiceOrder, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	var moved domain.ServiceOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status.Terminal() {
			return domain.ErrOrderTerminal
		}

		if technician != "" {
			order.Technician = technician
		}
		if status != domain.StatusPending && order.Technician == "" {
			return domain.ErrTechnicianRequired
		}

		order.Status = status
		order.PaymentMethod = method
		order.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}
		moved = *order
		return nil
	})
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	s.bus.Publish(watch.Event{Collection: "service_orders", Op: watch.OpUpdate, ID: moved.ID.String(), At: moved.UpdatedAt})
	s.log.Info("service order moved",
		zap.String("os_number", moved.OSNumber),
		zap.String("status", string(moved.Status)),
	)
	return moved, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetServiceOrderRequest) (domain.ServiceOrder, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if order == nil {
		return domain.ServiceOrder{}, domain.ErrNotFound
	}

	items, err := s.repo.FindItems(ctx, s.db, []snowflake.ID{order.ID})
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	order.Items = items
	return *order, nil
}

func (s *Service) List(ctx context.Context, req domain.ListServiceOrderRequest) (domain.ListServiceOrderResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListServiceOrderResponse{}, domain.ErrInvalidStatus
	}

	filter := domain.ListServiceOrderFilter{Status: req.Status}
	switch req.DateFilter {
	case "", domain.DateFilterAll:
	case domain.DateFilterToday, domain.DateFilterYesterday:
		day := s.clock.Now()
		if req.DateFilter == domain.DateFilterYesterday {
			day = day.AddDate(0, 0, -1)
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.From = &start
		filter.To = &end
	default:
		return domain.ListServiceOrderResponse{}, domain.ErrInvalidDateFilter
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListServiceOrderResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(order *domain.ServiceOrder) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        order.ID.String(),
			CreatedAt: order.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, order := range items {
		if order != nil {
			ids = append(ids, order.ID)
		}
	}
	allItems, err := s.repo.FindItems(ctx, s.db, ids)
	if err != nil {
		return domain.ListServiceOrderResponse{}, err
	}
	byOrder := make(map[snowflake.ID][]domain.ServiceOrderItem, len(ids))
	for _, item := range allItems {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	orders := make([]domain.ServiceOrder, 0, len(items))
	for _, order := range items {
		if order == nil {
			continue
		}
		order.Items = byOrder[order.ID]
		orders = append(orders, *order)
	}

	resp := domain.ListServiceOrderResponse{Orders: orders}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// buildItems resolves each product and snapshots its name and price into the
// line item. A missing product aborts the whole save.
func (s *Service) buildItems(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, inputs []domain.ItemInput) ([]domain.ServiceOrderItem, error) {
	items := make([]domain.ServiceOrderItem, 0, len(inputs))
	for _, input := range inputs {
		if input.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		productID, err := snowflake.ParseString(strings.TrimSpace(input.ProductID))
		if err != nil || productID == 0 {
			return nil, domain.ErrProductNotFound
		}
		product, err := s.productRepo.FindByID(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrProductNotFound
		}

		unitPrice := product.SellPrice
		if input.UnitPrice != nil {
			unitPrice = *input.UnitPrice
		}

		items = append(items, domain.ServiceOrderItem{
			ID:          s.genID.Generate(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   unitPrice,
			Quantity:    input.Quantity,
			Total:       unitPrice * input.Quantity,
		})
	}
	return items, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
