package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/taoerp/taoerp/internal/clock"
	"github.com/taoerp/taoerp/internal/person/domain"
	"github.com/taoerp/taoerp/internal/watch"
	"github.com/taoerp/taoerp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("person.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
		bus:   p.Bus,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePersonRequest) (domain.Person, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Person{}, domain.ErrInvalidName
	}
	if !req.Role.Valid() {
		return domain.Person{}, domain.ErrInvalidRole
	}

	now := s.clock.Now()
	person := domain.Person{
		ID:        s.genID.Generate(),
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		TaxID:     strings.TrimSpace(req.TaxID),
		Role:      req.Role,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &person); err != nil {
		return domain.Person{}, err
	}

	s.bus.Publish(watch.Event{Collection: "people", Op: watch.OpCreate, ID: person.ID.String(), At: now})
	return person, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdatePersonRequest) (domain.Person, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Person{}, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Person{}, err
	}
	if existing == nil {
		return domain.Person{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Person{}, domain.ErrInvalidName
		}
		existing.Name = name
	}
	if req.Phone != nil {
		existing.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		existing.Email = strings.TrimSpace(*req.Email)
	}
	if req.TaxID != nil {
		existing.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return domain.Person{}, domain.ErrInvalidRole
		}
		existing.Role = *req.Role
	}
	existing.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return domain.Person{}, err
	}

	s.bus.Publish(watch.Event{Collection: "people", Op: watch.OpUpdate, ID: existing.ID.String(), At: existing.UpdatedAt})
	return *existing, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeletePersonRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}

	s.bus.Publish(watch.Event{Collection: "people", Op: watch.OpDelete, ID: id.String(), At: s.clock.Now()})
	return nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetPersonRequest) (domain.Person, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Person{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Person{}, err
	}
	if item == nil {
		return domain.Person{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPersonRequest) (domain.ListPersonResponse, error) {
	if req.Role != "" && !req.Role.Valid() {
		return domain.ListPersonResponse{}, domain.ErrInvalidRole
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListPersonFilter{
		Name: strings.TrimSpace(req.Name),
		Role: req.Role,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListPersonResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(person *domain.Person) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        person.ID.String(),
			CreatedAt: person.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	people := make([]domain.Person, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		people = append(people, *item)
	}

	resp := domain.ListPersonResponse{People: people}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
