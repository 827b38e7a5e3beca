package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/taoerp/taoerp/internal/clock"
	"github.com/taoerp/taoerp/internal/product/domain"
	"github.com/taoerp/taoerp/internal/watch"
	"github.com/taoerp/taoerp/pkg/db"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  domain.Repository
	Bus   *watch.Bus
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  domain.Repository
	bus   *watch.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
		bus:   p.Bus,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrInvalidName
	}
	if !req.Kind.Valid() {
		return domain.Product{}, domain.ErrInvalidKind
	}
	if req.CostPrice < 0 || req.SellPrice < 0 {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	if req.Kind == domain.KindService && (req.Stock != nil || req.MinStock != nil || strings.TrimSpace(req.Unit) != "") {
		return domain.Product{}, domain.ErrServiceStockFields
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = strings.ToUpper(slug.Make(name))
	}

	now := s.clock.Now()
	product := domain.Product{
		ID:          s.genID.Generate(),
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Barcode:     strings.TrimSpace(req.Barcode),
		Kind:        req.Kind,
		Category:    strings.TrimSpace(req.Category),
		CostPrice:   req.CostPrice,
		SellPrice:   req.SellPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Kind == domain.KindProduct {
		product.Stock = req.Stock
		product.MinStock = req.MinStock
		product.Unit = strings.TrimSpace(req.Unit)
	}

	if err := s.repo.Insert(ctx, s.db, &product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Product{}, domain.ErrCodeTaken
		}
		return domain.Product{}, err
	}

	s.bus.Publish(watch.Event{Collection: "products", Op: watch.OpCreate, ID: product.ID.String(), At: now})
	return product, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProductRequest) (domain.Product, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if existing == nil {
		return domain.Product{}, domain.ErrNotFound
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return domain.Product{}, domain.ErrInvalidName
		}
		existing.Code = code
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, domain.ErrInvalidName
		}
		existing.Name = name
	}
	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	if req.Barcode != nil {
		existing.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Category != nil {
		existing.Category = strings.TrimSpace(*req.Category)
	}
	if req.CostPrice != nil {
		if *req.CostPrice < 0 {
			return domain.Product{}, domain.ErrInvalidPrice
		}
		existing.CostPrice = *req.CostPrice
	}
	if req.SellPrice != nil {
		if *req.SellPrice < 0 {
			return domain.Product{}, domain.ErrInvalidPrice
		}
		existing.SellPrice = *req.SellPrice
	}

	if existing.Kind == domain.KindService {
		if req.Stock != nil || req.MinStock != nil || (req.Unit != nil && strings.TrimSpace(*req.Unit) != "") {
			return domain.Product{}, domain.ErrServiceStockFields
		}
	} else {
		if req.Stock != nil {
			existing.Stock = req.Stock
		}
		if req.MinStock != nil {
			existing.MinStock = req.MinStock
		}
		if req.Unit != nil {
			existing.Unit = strings.TrimSpace(*req.Unit)
		}
	}
	existing.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Product{}, domain.ErrCodeTaken
		}
		return domain.Product{}, err
	}

	s.bus.Publish(watch.Event{Collection: "products", Op: watch.OpUpdate, ID: existing.ID.String(), At: existing.UpdatedAt})
	return *existing, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteProductRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}

	s.bus.Publish(watch.Event{Collection: "products", Op: watch.OpDelete, ID: id.String(), At: s.clock.Now()})
	return nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetProductRequest) (domain.Product, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Product{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if item == nil {
		return domain.Product{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProductRequest) (domain.ListProductResponse, error) {
	if req.Kind != "" && !req.Kind.Valid() {
		return domain.ListProductResponse{}, domain.ErrInvalidKind
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListProductFilter{
		Name:     strings.TrimSpace(req.Name),
		Kind:     req.Kind,
		Category: strings.TrimSpace(req.Category),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListProductResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(product *domain.Product) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        product.ID.String(),
			CreatedAt: product.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, *item)
	}

	resp := domain.ListProductResponse{Products: products}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) LowStock(ctx context.Context) ([]domain.Product, error) {
	items, err := s.repo.FindBelowMinStock(ctx, s.db)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, *item)
	}
	return products, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
