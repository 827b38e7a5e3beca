package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoerp/taoerp/internal/clock"
	persondomain "github.com/taoerp/taoerp/internal/person/domain"
	personrepository "github.com/taoerp/taoerp/internal/person/repository"
	productdomain "github.com/taoerp/taoerp/internal/product/domain"
	productrepository "github.com/taoerp/taoerp/internal/product/repository"
	"github.com/taoerp/taoerp/internal/serviceorder/domain"
	"github.com/taoerp/taoerp/internal/serviceorder/repository"
	"github.com/taoerp/taoerp/internal/watch"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type orderFixture struct {
	db       *gorm.DB
	svc      *Service
	node     *snowflake.Node
	clock    *clock.FakeClock
	customer snowflake.ID
}

func newOrderFixture(t *testing.T) *orderFixture {
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
		`CREATE TABLE service_orders (
			id BIGINT PRIMARY KEY,
			os_number TEXT NOT NULL UNIQUE,
			customer_id BIGINT NOT NULL,
			technician TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			discount REAL NOT NULL DEFAULT 0,
			surcharge REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL DEFAULT 0,
			payment_method TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE service_order_items (
			id BIGINT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			product_name TEXT NOT NULL,
			unit_price REAL NOT NULL DEFAULT 0,
			quantity REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL DEFAULT 0
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	svc := &Service{
		db:          db,
		log:         log,
		clock:       fakeClock,
		genID:       node,
		repo:        repository.Provide(),
		personRepo:  personrepository.Provide(),
		productRepo: productrepository.Provide(),
		bus:         watch.NewBus(log),
	}

	f := &orderFixture{db: db, svc: svc, node: node, clock: fakeClock}
	f.customer = f.seedPerson(t, "Alice", persondomain.RoleCustomer)
	return f
}

func (f *orderFixture) seedPerson(t *testing.T, name string, role persondomain.Role) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO people (id, name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, role, now, now,
	).Error)
	return id
}

func (f *orderFixture) seedProduct(t *testing.T, code, name string, sellPrice float64) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO products (id, code, name, kind, sell_price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, code, name, productdomain.KindService, sellPrice, now, now,
	).Error)
	return id
}

func TestCreateServiceOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	labor := f.seedProduct(t, "LABOR", "Bench labor", 35)
	screen := f.seedProduct(t, "SCREEN", "Replacement screen", 50)

	t.Run("computes total from items discount and surcharge", func(t *testing.T) {
		order, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
			CustomerID: f.customer.String(),
			Items: []domain.ItemInput{
				{ProductID: labor.String(), Quantity: 2},
				{ProductID: screen.String(), Quantity: 1},
			},
			Discount:  10,
			Surcharge: 15,
		})
		require.NoError(t, err)

		assert.Equal(t, "OS-0001", order.OSNumber)
		assert.Equal(t, domain.StatusPending, order.Status)
		assert.Equal(t, 125.0, order.Total) // 70 + 50 - 10 + 15
		assert.Len(t, order.Items, 2)
		assert.Equal(t, "Bench labor", order.Items[0].ProductName)
		assert.Equal(t, 35.0, order.Items[0].UnitPrice)
	})

	t.Run("numbers are sequential", func(t *testing.T) {
		f.clock.Advance(time.Minute)
		order, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
			CustomerID: f.customer.String(),
			Items:      []domain.ItemInput{{ProductID: labor.String(), Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, "OS-0002", order.OSNumber)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
			CustomerID: f.customer.String(),
		})
		assert.ErrorIs(t, err, domain.ErrNoItems)
	})

	t.Run("rejects unknown customer", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
			CustomerID: f.node.Generate().String(),
			Items:      []domain.ItemInput{{ProductID: labor.String(), Quantity: 1}},
		})
		assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	})

	t.Run("dangling product aborts the whole save", func(t *testing.T) {
		var before int64
		f.db.Raw(`SELECT COUNT(1) FROM service_orders`).Scan(&before)

		_, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
			CustomerID: f.customer.String(),
			Items: []domain.ItemInput{
				{ProductID: labor.String(), Quantity: 1},
				{ProductID: f.node.Generate().String(), Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, domain.ErrProductNotFound)

		var after int64
		f.db.Raw(`SELECT COUNT(1) FROM service_orders`).Scan(&after)
		assert.Equal(t, before, after)
	})

	t.Run("overridden unit price wins over catalog price", func(t *testing.T) {
		f.clock.Advance(time.Minute)
		override := 99.0
		order, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
			CustomerID: f.customer.String(),
			Items:      []domain.ItemInput{{ProductID: labor.String(), Quantity: 1, UnitPrice: &override}},
		})
		require.NoError(t, err)
		assert.Equal(t, 99.0, order.Items[0].UnitPrice)
		assert.Equal(t, 99.0, order.Total)
	})
}

func TestServiceOrderSnapshotSemantics(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "BATTERY", "Battery pack", 40)

	order, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
		CustomerID: f.customer.String(),
		Items:      []domain.ItemInput{{ProductID: product.String(), Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, order.Total)

	// Catalog changes after the sale never rewrite history.
	require.NoError(t, f.db.Exec(
		`UPDATE products SET name = ?, sell_price = ? WHERE id = ?`,
		"Battery pack v2", 60.0, product,
	).Error)

	got, err := f.svc.GetByID(ctx, domain.GetServiceOrderRequest{ID: order.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Battery pack", got.Items[0].ProductName)
	assert.Equal(t, 40.0, got.Items[0].UnitPrice)
	assert.Equal(t, 80.0, got.Total)
}

func TestServiceOrderStatusTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "LABOR", "Bench labor", 50)

	newOrder := func(t *testing.T) domain.ServiceOrder {
		f.clock.Advance(time.Minute)
		order, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
			CustomerID: f.customer.String(),
			Items:      []domain.ItemInput{{ProductID: product.String(), Quantity: 1}},
		})
		require.NoError(t, err)
		return order
	}

	t.Run("leaving pending without technician is rejected", func(t *testing.T) {
		order := newOrder(t)
		_, err := f.svc.ChangeStatus(ctx, domain.ChangeStatusRequest{
			ID:     order.ID.String(),
			Status: domain.StatusInProgress,
		})
		assert.ErrorIs(t, err, domain.ErrTechnicianRequired)
	})

	t.Run("technician can be supplied with the move", func(t *testing.T) {
		order := newOrder(t)
		moved, err := f.svc.ChangeStatus(ctx, domain.ChangeStatusRequest{
			ID:         order.ID.String(),
			Status:     domain.StatusInProgress,
			Technician: "Bob",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, moved.Status)
		assert.Equal(t, "Bob", moved.Technician)
	})

	t.Run("delivered is unreachable through ChangeStatus", func(t *testing.T) {
		order := newOrder(t)
		_, err := f.svc.ChangeStatus(ctx, domain.ChangeStatusRequest{
			ID:     order.ID.String(),
			Status: domain.StatusDelivered,
		})
		assert.ErrorIs(t, err, domain.ErrPaymentMethodRequired)
	})

	t.Run("cancelled is unreachable through ChangeStatus", func(t *testing.T) {
		order := newOrder(t)
		_, err := f.svc.ChangeStatus(ctx, domain.ChangeStatusRequest{
			ID:     order.ID.String(),
			Status: domain.StatusCancelled,
		})
		assert.ErrorIs(t, err, domain.ErrCancelConfirmRequired)
	})

	t.Run("deliver records the payment method", func(t *testing.T) {
		order := newOrder(t)
		delivered, err := f.svc.Deliver(ctx, domain.DeliverRequest{
			ID:            order.ID.String(),
			PaymentMethod: domain.PaymentPix,
			Technician:    "Bob",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDelivered, delivered.Status)
		require.NotNil(t, delivered.PaymentMethod)
		assert.Equal(t, domain.PaymentPix, *delivered.PaymentMethod)
	})

	t.Run("deliver rejects an unknown payment method", func(t *testing.T) {
		order := newOrder(t)
		_, err := f.svc.Deliver(ctx, domain.DeliverRequest{
			ID:            order.ID.String(),
			PaymentMethod: "check",
			Technician:    "Bob",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)
	})

	t.Run("terminal orders are frozen", func(t *testing.T) {
		order := newOrder(t)
		_, err := f.svc.Deliver(ctx, domain.DeliverRequest{
			ID:            order.ID.String(),
			PaymentMethod: domain.PaymentCash,
			Technician:    "Bob",
		})
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, domain.CancelRequest{ID: order.ID.String()})
		assert.ErrorIs(t, err, domain.ErrOrderTerminal)

		technician := "Carol"
		_, err = f.svc.Update(ctx, domain.UpdateServiceOrderRequest{
			ID:         order.ID.String(),
			Technician: &technician,
		})
		assert.ErrorIs(t, err, domain.ErrOrderTerminal)
	})

	t.Run("cancel works from any open status", func(t *testing.T) {
		order := newOrder(t)
		_, err := f.svc.ChangeStatus(ctx, domain.ChangeStatusRequest{
			ID:         order.ID.String(),
			Status:     domain.StatusAwaitingParts,
			Technician: "Bob",
		})
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(ctx, domain.CancelRequest{ID: order.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	})
}

func TestUpdateServiceOrderRecomputesTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	labor := f.seedProduct(t, "LABOR", "Bench labor", 30)
	part := f.seedProduct(t, "PART", "Spare part", 20)

	order, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
		CustomerID: f.customer.String(),
		Items:      []domain.ItemInput{{ProductID: labor.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, order.Total)

	discount := 5.0
	updated, err := f.svc.Update(ctx, domain.UpdateServiceOrderRequest{
		ID: order.ID.String(),
		Items: []domain.ItemInput{
			{ProductID: labor.String(), Quantity: 2},
			{ProductID: part.String(), Quantity: 3},
		},
		Discount: &discount,
	})
	require.NoError(t, err)
	assert.Equal(t, 115.0, updated.Total) // 60 + 60 - 5
	assert.Len(t, updated.Items, 2)

	t.Run("replacing items with an empty list is rejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, domain.UpdateServiceOrderRequest{
			ID:    order.ID.String(),
			Items: []domain.ItemInput{},
		})
		assert.ErrorIs(t, err, domain.ErrNoItems)
	})
}

func TestListServiceOrdersDateFilter(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "LABOR", "Bench labor", 10)

	// Yesterday's order.
	f.clock.Advance(-24 * time.Hour)
	_, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
		CustomerID: f.customer.String(),
		Items:      []domain.ItemInput{{ProductID: product.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	// Today's order.
	f.clock.Advance(24 * time.Hour)
	today, err := f.svc.Create(ctx, domain.CreateServiceOrderRequest{
		CustomerID: f.customer.String(),
		Items:      []domain.ItemInput{{ProductID: product.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	resp, err := f.svc.List(ctx, domain.ListServiceOrderRequest{DateFilter: domain.DateFilterToday})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, today.OSNumber, resp.Orders[0].OSNumber)

	resp, err = f.svc.List(ctx, domain.ListServiceOrderRequest{DateFilter: domain.DateFilterYesterday})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.NotEqual(t, today.OSNumber, resp.Orders[0].OSNumber)

	_, err = f.svc.List(ctx, domain.ListServiceOrderRequest{DateFilter: "last_week"})
	assert.ErrorIs(t, err, domain.ErrInvalidDateFilter)
}
