package settings

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoerp/taoerp/internal/clock"
	"github.com/taoerp/taoerp/internal/config"
	"github.com/taoerp/taoerp/internal/watch"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newSettingsService(t *testing.T) (*service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		`CREATE TABLE settings (
			id BIGINT PRIMARY KEY,
			app_name TEXT NOT NULL,
			logo_url TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL
		)`,
	).Error)

	fakeClock := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	svc := &service{
		db:    db,
		log:   log,
		clock: fakeClock,
		defaults: config.StaticWorkspaceDefaults(config.WorkspaceDefaults{
			AppName: "Fallback Shop",
			LogoURL: "https://example.com/logo.png",
		}),
		bus:  watch.NewBus(log),
		subs: make(map[int]func(Settings)),
	}
	return svc, fakeClock
}

func TestSettingsFallBackToWorkspaceDefaults(t *testing.T) {
	svc, _ := newSettingsService(t)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fallback Shop", got.AppName)
	assert.Equal(t, "https://example.com/logo.png", got.LogoURL)
}

func TestUpdateSettings(t *testing.T) {
	svc, fakeClock := newSettingsService(t)
	ctx := context.Background()

	name := "Oficina do Tao"
	saved, err := svc.Update(ctx, UpdateRequest{AppName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Oficina do Tao", saved.AppName)
	assert.Equal(t, fakeClock.Now(), saved.UpdatedAt)

	// Subsequent reads come from the stored row, not the defaults.
	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Oficina do Tao", got.AppName)

	t.Run("partial update keeps the other field", func(t *testing.T) {
		logo := "https://example.com/new.png"
		updated, err := svc.Update(ctx, UpdateRequest{LogoURL: &logo})
		require.NoError(t, err)
		assert.Equal(t, "Oficina do Tao", updated.AppName)
		assert.Equal(t, logo, updated.LogoURL)
	})

	t.Run("blank app name is rejected", func(t *testing.T) {
		blank := "   "
		_, err := svc.Update(ctx, UpdateRequest{AppName: &blank})
		assert.ErrorIs(t, err, ErrInvalidAppName)
	})
}

func TestSettingsSubscribe(t *testing.T) {
	svc, _ := newSettingsService(t)
	ctx := context.Background()

	var seen []string
	unsubscribe := svc.Subscribe(func(s Settings) {
		seen = append(seen, s.AppName)
	})

	first := "First"
	_, err := svc.Update(ctx, UpdateRequest{AppName: &first})
	require.NoError(t, err)

	unsubscribe()

	second := "Second"
	_, err = svc.Update(ctx, UpdateRequest{AppName: &second})
	require.NoError(t, err)

	assert.Equal(t, []string{"First"}, seen)
}
