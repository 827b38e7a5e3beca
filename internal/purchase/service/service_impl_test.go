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
	"github.com/taoerp/taoerp/internal/purchase/domain"
	"github.com/taoerp/taoerp/internal/purchase/repository"
	"github.com/taoerp/taoerp/internal/watch"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type purchaseFixture struct {
	db       *gorm.DB
	svc      *Service
	node     *snowflake.Node
	clock    *clock.FakeClock
	supplier snowflake.ID
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
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
		`CREATE TABLE purchases (
			id BIGINT PRIMARY KEY,
			supplier_id BIGINT NOT NULL,
			item TEXT NOT NULL,
			invoice TEXT NOT NULL DEFAULT '',
			installment TEXT NOT NULL,
			total REAL NOT NULL,
			payment_date TIMESTAMP NOT NULL,
			status TEXT NOT NULL,
			receipt_token TEXT,
			receipt_name TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	svc := &Service{
		db:         db,
		log:        log,
		clock:      fakeClock,
		genID:      node,
		repo:       repository.Provide(),
		personRepo: personrepository.Provide(),
		bus:        watch.NewBus(log),
	}

	f := &purchaseFixture{db: db, svc: svc, node: node, clock: fakeClock}
	f.supplier = f.seedPerson(t, "Parts Warehouse", persondomain.RoleSupplier)
	return f
}

func (f *purchaseFixture) seedPerson(t *testing.T, name string, role persondomain.Role) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO people (id, name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, role, now, now,
	).Error)
	return id
}

func (f *purchaseFixture) countPurchases(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM purchases`).Scan(&n).Error)
	return n
}

func TestCreatePurchaseBatch(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	t.Run("splits total across monthly installments", func(t *testing.T) {
		first := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         "Screen stock",
			Invoice:      "NF-123",
			Installments: 3,
			Total:        1200,
			FirstDueDate: first,
		})
		require.NoError(t, err)
		require.Len(t, rows, 3)

		for _, row := range rows {
			assert.Equal(t, 400.0, row.Total)
			assert.Equal(t, domain.StatusForecast, row.Status)
			assert.Equal(t, "Screen stock", row.Item)
		}
		assert.Equal(t, "1/3", rows[0].Installment)
		assert.Equal(t, "2/3", rows[1].Installment)
		assert.Equal(t, "3/3", rows[2].Installment)
		assert.Equal(t, first, rows[0].PaymentDate)
		assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), rows[1].PaymentDate)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), rows[2].PaymentDate)
	})

	t.Run("single installment is the default shape", func(t *testing.T) {
		rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         "Solder wire",
			Installments: 1,
			Total:        45.5,
			FirstDueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "1/1", rows[0].Installment)
		assert.Equal(t, 45.5, rows[0].Total)
	})

	t.Run("uneven totals split without remainder redistribution", func(t *testing.T) {
		rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         "Bench vise",
			Installments: 3,
			Total:        100,
			FirstDueDate: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, rows, 3)

		sum := 0.0
		for _, row := range rows {
			assert.InDelta(t, 100.0/3.0, row.Total, 1e-9)
			sum += row.Total
		}
		assert.InDelta(t, 100.0, sum, 1e-9)
	})

	t.Run("paid intent applies only to the first installment", func(t *testing.T) {
		rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         "Tooling",
			Installments: 2,
			Total:        200,
			FirstDueDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Status:       domain.StatusPaid,
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, domain.StatusPaid, rows[0].Status)
		assert.Equal(t, domain.StatusForecast, rows[1].Status)
	})

	t.Run("receipt attaches to the first installment at creation", func(t *testing.T) {
		rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         "Glue",
			Installments: 2,
			Total:        60,
			FirstDueDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			ReceiptName:  "nf-glue.pdf",
		})
		require.NoError(t, err)
		require.NotNil(t, rows[0].ReceiptName)
		assert.Equal(t, "nf-glue.pdf", *rows[0].ReceiptName)
		require.NotNil(t, rows[0].ReceiptToken)
		assert.NotEmpty(t, *rows[0].ReceiptToken)
		assert.Nil(t, rows[1].ReceiptName)
	})

	t.Run("rejects non positive totals before writing", func(t *testing.T) {
		before := f.countPurchases(t)
		_, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         "Nothing",
			Installments: 2,
			Total:        0,
			FirstDueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTotal)
		assert.Equal(t, before, f.countPurchases(t))
	})

	t.Run("rejects zero installments", func(t *testing.T) {
		_, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         "Nothing",
			Installments: 0,
			Total:        100,
			FirstDueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInstallments)
	})

	t.Run("unknown supplier aborts the whole batch", func(t *testing.T) {
		before := f.countPurchases(t)
		_, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.node.Generate().String(),
			Item:         "Orphan",
			Installments: 3,
			Total:        300,
			FirstDueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, domain.ErrSupplierNotFound)
		assert.Equal(t, before, f.countPurchases(t))
	})

	t.Run("customers cannot be billed as suppliers", func(t *testing.T) {
		customer := f.seedPerson(t, "Alice", persondomain.RoleCustomer)
		_, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   customer.String(),
			Item:         "Misfiled",
			Installments: 1,
			Total:        10,
			FirstDueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidSupplierRole)
	})
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), domain.AddMonths(jan31, 1))
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), domain.AddMonths(jan31, 2))
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		domain.AddMonths(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		domain.AddMonths(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1))
}

func TestUpdatePaidPurchaseIsFrozen(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
		SupplierID:   f.supplier.String(),
		Item:         "Compressor",
		Installments: 1,
		Total:        500,
		FirstDueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:       domain.StatusPaid,
	})
	require.NoError(t, err)
	paid := rows[0]

	t.Run("financial fields cannot change", func(t *testing.T) {
		total := 600.0
		_, err := f.svc.Update(ctx, domain.UpdatePurchaseRequest{
			ID:    paid.ID.String(),
			Total: &total,
		})
		assert.ErrorIs(t, err, domain.ErrPaidImmutable)

		item := "Compressor v2"
		_, err = f.svc.Update(ctx, domain.UpdatePurchaseRequest{
			ID:   paid.ID.String(),
			Item: &item,
		})
		assert.ErrorIs(t, err, domain.ErrPaidImmutable)
	})

	t.Run("the status flag itself can still flip", func(t *testing.T) {
		status := domain.StatusForecast
		updated, err := f.svc.Update(ctx, domain.UpdatePurchaseRequest{
			ID:     paid.ID.String(),
			Status: &status,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusForecast, updated.Status)

		reflipped, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{ID: paid.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, reflipped.Status)
	})
}

func TestUpdatePurchase(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
		SupplierID:   f.supplier.String(),
		Item:         "Filters",
		Installments: 1,
		Total:        80,
		FirstDueDate: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	forecast := rows[0]

	total := 95.0
	due := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.Update(ctx, domain.UpdatePurchaseRequest{
		ID:          forecast.ID.String(),
		Total:       &total,
		PaymentDate: &due,
	})
	require.NoError(t, err)
	assert.Equal(t, 95.0, updated.Total)
	assert.Equal(t, due, updated.PaymentDate)

	t.Run("unknown id maps to not found", func(t *testing.T) {
		_, err := f.svc.Update(ctx, domain.UpdatePurchaseRequest{ID: f.node.Generate().String()})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, domain.UpdatePurchaseRequest{ID: "not-a-number"})
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})
}

func TestAttachReceipt(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	rows, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
		SupplierID:   f.supplier.String(),
		Item:         "Cleaning kit",
		Installments: 1,
		Total:        30,
		FirstDueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	updated, err := f.svc.AttachReceipt(ctx, domain.AttachReceiptRequest{
		ID:       rows[0].ID.String(),
		Filename: "nf-cleaning.pdf",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ReceiptName)
	assert.Equal(t, "nf-cleaning.pdf", *updated.ReceiptName)
	require.NotNil(t, updated.ReceiptToken)
	assert.Len(t, *updated.ReceiptToken, 26)

	t.Run("blank filename is rejected", func(t *testing.T) {
		_, err := f.svc.AttachReceipt(ctx, domain.AttachReceiptRequest{
			ID:       rows[0].ID.String(),
			Filename: "   ",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidFilename)
	})
}

func TestListPurchasesByMonth(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
		SupplierID:   f.supplier.String(),
		Item:         "Quarterly stock",
		Installments: 3,
		Total:        900,
		FirstDueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	resp, err := f.svc.List(ctx, domain.ListPurchaseRequest{Month: &feb})
	require.NoError(t, err)
	require.Len(t, resp.Purchases, 1)
	assert.Equal(t, "2/3", resp.Purchases[0].Installment)
}

func TestListPurchasesCursorPagination(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	items := []string{"Solder", "Flux", "Tweezers", "Tape"}
	for _, item := range items {
		f.clock.Advance(time.Minute)
		_, err := f.svc.CreateBatch(ctx, domain.CreatePurchaseRequest{
			SupplierID:   f.supplier.String(),
			Item:         item,
			Installments: 1,
			Total:        10,
			FirstDueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	first, err := f.svc.List(ctx, domain.ListPurchaseRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Purchases, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)
	assert.Equal(t, "Tape", first.Purchases[0].Item)
	assert.Equal(t, "Tweezers", first.Purchases[1].Item)

	second, err := f.svc.List(ctx, domain.ListPurchaseRequest{
		PageSize:  2,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second.Purchases, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, "Flux", second.Purchases[0].Item)
	assert.Equal(t, "Solder", second.Purchases[1].Item)
}
