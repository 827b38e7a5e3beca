package bulkimport

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoerp/taoerp/internal/clock"
	personrepository "github.com/taoerp/taoerp/internal/person/repository"
	personsvc "github.com/taoerp/taoerp/internal/person/service"
	productrepository "github.com/taoerp/taoerp/internal/product/repository"
	productsvc "github.com/taoerp/taoerp/internal/product/service"
	"github.com/taoerp/taoerp/internal/watch"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newImportService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE people (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			tax_id TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE products (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			barcode TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			cost_price REAL NOT NULL DEFAULT 0,
			sell_price REAL NOT NULL DEFAULT 0,
			stock REAL,
			min_stock REAL,
			unit TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	fakeClock := clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))
	bus := watch.NewBus(log)

	people := personsvc.New(personsvc.Params{
		DB:    db,
		Log:   log,
		Clock: fakeClock,
		GenID: node,
		Repo:  personrepository.Provide(),
		Bus:   bus,
	})
	products := productsvc.New(productsvc.Params{
		DB:    db,
		Log:   log,
		Clock: fakeClock,
		GenID: node,
		Repo:  productrepository.Provide(),
		Bus:   bus,
	})

	return &service{log: log, people: people, products: products}, db
}

func TestImportPeople(t *testing.T) {
	svc, db := newImportService(t)

	csv := strings.Join([]string{
		"name,phone,email,role",
		"Alice,555-0100,alice@example.com,customer",
		"Parts Warehouse,,sales@parts.example,supplier",
		",,missing-name@example.com,customer",
		"Bob,,,director",
	}, "\n")

	report, err := svc.Import(context.Background(), "people", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 2, report.Skipped)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 4, report.Errors[0].Line)
	assert.Equal(t, 5, report.Errors[1].Line)

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM people`).Scan(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportProducts(t *testing.T) {
	svc, db := newImportService(t)

	csv := strings.Join([]string{
		"code,name,kind,cost_price,sell_price,stock,min_stock,unit",
		"LABOR,Bench labor,service,0,50,,,",
		"SCREEN-01,Generic screen,product,30,80,10,2,pc",
		"BAD-PRICE,Broken row,product,thirty,80,5,1,pc",
	}, "\n")

	report, err := svc.Import(context.Background(), "products", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Message, "invalid_number_cost_price")

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM products`).Scan(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportUnknownCollection(t *testing.T) {
	svc, _ := newImportService(t)

	_, err := svc.Import(context.Background(), "invoices", strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestImportEmptyBody(t *testing.T) {
	svc, _ := newImportService(t)

	_, err := svc.Import(context.Background(), "people", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)
}
