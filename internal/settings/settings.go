package settings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/taoerp/taoerp/internal/clock"
	"github.com/taoerp/taoerp/internal/config"
	"github.com/taoerp/taoerp/internal/watch"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settings is the single workspace branding record. Until one is saved, reads
// fall back to the hot-reloaded workspace.yml defaults.
type Settings struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	AppName   string    `gorm:"not null" json:"app_name"`
	LogoURL   string    `gorm:"column:logo_url" json:"logo_url,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Settings) TableName() string { return "settings" }

const settingsRowID = 1

type UpdateRequest struct {
	AppName *string
	LogoURL *string
}

var ErrInvalidAppName = errors.New("invalid_app_name")

type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, req UpdateRequest) (Settings, error)
	// Subscribe registers fn for every settings change and returns an
	// unsubscribe func. fn runs synchronously on the updating goroutine.
	Subscribe(fn func(Settings)) func()
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Defaults *config.WorkspaceDefaultsHolder
	Bus      *watch.Bus
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	defaults *config.WorkspaceDefaultsHolder
	bus      *watch.Bus

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Settings)
}

func New(p Params) Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("settings.service"),
		clock:    p.Clock,
		defaults: p.Defaults,
		bus:      p.Bus,
		subs:     make(map[int]func(Settings)),
	}
}

func (s *service) Get(ctx context.Context) (Settings, error) {
	var row Settings
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, app_name, logo_url, updated_at FROM settings WHERE id = ?`,
		settingsRowID,
	).Scan(&row).Error
	if err != nil {
		return Settings{}, err
	}
	if row.ID == 0 {
		defaults := s.defaults.Get()
		return Settings{
			ID:      settingsRowID,
			AppName: defaults.AppName,
			LogoURL: defaults.LogoURL,
		}, nil
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, req UpdateRequest) (Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	if req.AppName != nil {
		name := strings.TrimSpace(*req.AppName)
		if name == "" {
			return Settings{}, ErrInvalidAppName
		}
		current.AppName = name
	}
	if req.LogoURL != nil {
		current.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	current.ID = settingsRowID
	current.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE settings SET app_name = ?, logo_url = ?, updated_at = ? WHERE id = ?`,
			current.AppName, current.LogoURL, current.UpdatedAt, settingsRowID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return tx.Exec(
				`INSERT INTO settings (id, app_name, logo_url, updated_at) VALUES (?, ?, ?, ?)`,
				settingsRowID, current.AppName, current.LogoURL, current.UpdatedAt,
			).Error
		}
		return nil
	})
	if err != nil {
		return Settings{}, err
	}

	s.notify(current)
	s.bus.Publish(watch.Event{Collection: "settings", Op: watch.OpUpdate, ID: "1", At: current.UpdatedAt})
	return current, nil
}

func (s *service) Subscribe(fn func(Settings)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *service) notify(current Settings) {
	s.mu.Lock()
	fns := make([]func(Settings), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

var Module = fx.Module("settings.service",
	fx.Provide(New),
)
