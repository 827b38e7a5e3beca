package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/taoerp/taoerp/internal/clock"
	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	"github.com/taoerp/taoerp/internal/purchase/domain"
	"github.com/taoerp/taoerp/internal/watch"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Repo       domain.Repository
	PersonRepo persondomain.Repository
	Bus        *watch.Bus
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	repo       domain.Repository
	personRepo persondomain.Repository
	bus        *watch.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("purchase.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		repo:       p.Repo,
		personRepo: p.PersonRepo,
		bus:        p.Bus,
	}
}

// CreateBatch splits a purchase into N installment rows and writes them in one
// transaction. The split is a plain total/N division with no remainder
// redistribution, so for uneven amounts the installment sum may differ from the
// grand total by a rounding epsilon; this mirrors how purchases were always
// recorded here.
func (s *Service) CreateBatch(ctx context.Context, req domain.CreatePurchaseRequest) ([]domain.Purchase, error) {
	if req.Installments < 1 {
		return nil, domain.ErrInvalidInstallments
	}
	if req.Total <= 0 {
		return nil, domain.ErrInvalidTotal
	}
	item := strings.TrimSpace(req.Item)
	if item == "" {
		return nil, domain.ErrInvalidItem
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	supplierID, err := snowflake.ParseString(strings.TrimSpace(req.SupplierID))
	if err != nil || supplierID == 0 {
		return nil, domain.ErrInvalidID
	}

	perInstallment := req.Total / float64(req.Installments)
	now := s.clock.Now()

	purchases := make([]domain.Purchase, 0, req.Installments)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplier, err := s.personRepo.FindByID(ctx, tx, supplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			return domain.ErrSupplierNotFound
		}
		if supplier.Role != persondomain.RoleSupplier && supplier.Role != persondomain.RoleEmployee {
			return domain.ErrInvalidSupplierRole
		}

		for i := 0; i < req.Installments; i++ {
			status := domain.StatusForecast
			if i == 0 && req.Status == domain.StatusPaid {
				status = domain.StatusPaid
			}

			purchase := domain.Purchase{
				ID:          s.genID.Generate(),
				SupplierID:  supplierID,
				Item:        item,
				Invoice:     strings.TrimSpace(req.Invoice),
				Installment: fmt.Sprintf("%d/%d", i+1, req.Installments),
				Total:       perInstallment,
				PaymentDate: domain.AddMonths(req.FirstDueDate, i),
				Status:      status,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if i == 0 && strings.TrimSpace(req.ReceiptName) != "" {
				token := s.newReceiptToken(now)
				name := strings.TrimSpace(req.ReceiptName)
				purchase.ReceiptToken = &token
				purchase.ReceiptName = &name
			}

			if err := s.repo.Insert(ctx, tx, &purchase); err != nil {
				return err
			}
			purchases = append(purchases, purchase)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, purchase := range purchases {
		s.bus.Publish(watch.Event{Collection: "purchases", Op: watch.OpCreate, ID: purchase.ID.String(), At: now})
	}
	s.log.Info("purchase registered",
		zap.Int("installments", req.Installments),
		zap.Float64("total", req.Total),
	)
	return purchases, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdatePurchaseRequest) (domain.Purchase, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Purchase{}, err
	}

	var updated domain.Purchase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if purchase == nil {
			return domain.ErrNotFound
		}

		// Once settled, the financial fields are frozen; only the status flag
		// itself may still be flipped.
		if purchase.Status == domain.StatusPaid {
			if req.SupplierID != nil || req.Item != nil || req.Invoice != nil ||
				req.Total != nil || req.PaymentDate != nil {
				return domain.ErrPaidImmutable
			}
		}

		if req.SupplierID != nil {
			supplierID, err := snowflake.ParseString(strings.TrimSpace(*req.SupplierID))
			if err != nil || supplierID == 0 {
				return domain.ErrInvalidID
			}
			supplier, err := s.personRepo.FindByID(ctx, tx, supplierID)
			if err != nil {
				return err
			}
			if supplier == nil {
				return domain.ErrSupplierNotFound
			}
			if supplier.Role != persondomain.RoleSupplier && supplier.Role != persondomain.RoleEmployee {
				return domain.ErrInvalidSupplierRole
			}
			purchase.SupplierID = supplierID
		}
		if req.Item != nil {
			item := strings.TrimSpace(*req.Item)
			if item == "" {
				return domain.ErrInvalidItem
			}
			purchase.Item = item
		}
		if req.Invoice != nil {
			purchase.Invoice = strings.TrimSpace(*req.Invoice)
		}
		if req.Total != nil {
			if *req.Total <= 0 {
				return domain.ErrInvalidTotal
			}
			purchase.Total = *req.Total
		}
		if req.PaymentDate != nil {
			purchase.PaymentDate = *req.PaymentDate
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				return domain.ErrInvalidStatus
			}
			purchase.Status = *req.Status
		}
		purchase.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, purchase); err != nil {
			return err
		}
		updated = *purchase
		return nil
	})
	if err != nil {
		return domain.Purchase{}, err
	}

	s.bus.Publish(watch.Event{Collection: "purchases", Op: watch.OpUpdate, ID: updated.ID.String(), At: updated.UpdatedAt})
	return updated, nil
}

func (s *Service) MarkPaid(ctx context.Context, req domain.MarkPaidRequest) (domain.Purchase, error) {
	status := domain.StatusPaid
	return s.Update(ctx, domain.UpdatePurchaseRequest{ID: req.ID, Status: &status})
}

func (s *Service) AttachReceipt(ctx context.Context, req domain.AttachReceiptRequest) (domain.Purchase, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Purchase{}, err
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return domain.Purchase{}, domain.ErrInvalidFilename
	}

	purchase, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Purchase{}, err
	}
	if purchase == nil {
		return domain.Purchase{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	token := s.newReceiptToken(now)
	purchase.ReceiptToken = &token
	purchase.ReceiptName = &filename
	purchase.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, purchase); err != nil {
		return domain.Purchase{}, err
	}

	s.bus.Publish(watch.Event{Collection: "purchases", Op: watch.OpUpdate, ID: purchase.ID.String(), At: now})
	return *purchase, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetPurchaseRequest) (domain.Purchase, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Purchase{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Purchase{}, err
	}
	if item == nil {
		return domain.Purchase{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPurchaseRequest) (domain.ListPurchaseResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListPurchaseResponse{}, domain.ErrInvalidStatus
	}

	filter := domain.ListPurchaseFilter{
		Status:     req.Status,
		SupplierID: strings.TrimSpace(req.SupplierID),
	}
	if req.Month != nil {
		start := time.Date(req.Month.Year(), req.Month.Month(), 1, 0, 0, 0, 0, req.Month.Location())
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		filter.DueFrom = &start
		filter.DueTo = &end
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
		return domain.ListPurchaseResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(purchase *domain.Purchase) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        purchase.ID.String(),
			CreatedAt: purchase.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	purchases := make([]domain.Purchase, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		purchases = append(purchases, *item)
	}

	resp := domain.ListPurchaseResponse{Purchases: purchases}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) newReceiptToken(now time.Time) string {
	entropy := rand.New(rand.NewSource(now.UnixNano()))
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
