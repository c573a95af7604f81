package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-inventory-ledger/internal/lock"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []interface{}
}

func (n *recordingNotifier) Publish(event interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// testClock is a settable clock shared by the ledger and the report engine.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// conflictingProducts makes the first n quantity writes lose a simulated race.
type conflictingProducts struct {
	repository.ProductRepository
	remaining int32
}

func (r *conflictingProducts) AdjustQuantity(tx *gorm.DB, id uuid.UUID, expected, delta int, updatedBy string) error {
	if atomic.AddInt32(&r.remaining, -1) >= 0 {
		return repository.ErrConcurrencyConflict
	}
	return r.ProductRepository.AdjustQuantity(tx, id, expected, delta, updatedBy)
}

type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string) (func(), error) {
	return nil, lock.ErrNotObtained
}

type fixture struct {
	db        *gorm.DB
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	txs       repository.TransactionRepository
	users     repository.UserRepository
	notifier  *recordingNotifier
	clock     *testClock
	ledger    LedgerService
	catalog   CatalogService
	supplier  SupplierService
	reports   ReportService
	stock     StockService
	actor     Actor
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T, opts ...LedgerOption) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:        db,
		products:  repository.NewProductRepo(db),
		suppliers: repository.NewSupplierRepo(db),
		txs:       repository.NewTransactionRepo(db),
		users:     repository.NewUserRepo(db),
		notifier:  &recordingNotifier{},
		clock:     &testClock{t: time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)},
		actor:     Actor{ID: uuid.New(), Name: "Manager", Email: "manager@inventory.com"},
	}
	f.build(f.products, lock.NewLocal(), opts...)
	return f
}

// build wires the services; products may be wrapped to inject failures.
func (f *fixture) build(products repository.ProductRepository, locker lock.Locker, opts ...LedgerOption) {
	log := zap.NewNop()
	opts = append([]LedgerOption{WithClock(f.clock.Now)}, opts...)
	f.ledger = NewLedgerService(f.db, products, f.txs, locker, f.notifier, log, opts...)
	f.catalog = NewCatalogService(f.products, f.suppliers, f.txs, f.ledger, log)
	f.supplier = NewSupplierService(f.suppliers, f.products, log)
	f.reports = NewReportService(f.db, f.products, f.suppliers, f.txs, log, WithReportClock(f.clock.Now))
	f.stock = NewStockService(f.products, f.txs, f.users)
}

func (f *fixture) newSupplier(t *testing.T, name string) *model.Supplier {
	t.Helper()
	s, err := f.supplier.CreateSupplier(context.Background(), SupplierRequest{Name: name}, f.actor)
	require.NoError(t, err)
	return s
}

func (f *fixture) newProduct(t *testing.T, supplierID uuid.UUID, sku, cost, price string, threshold int) *model.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), CreateProductRequest{
		Name:       "Product " + sku,
		SKU:        sku,
		Cost:       decimal.RequireFromString(cost),
		Price:      decimal.RequireFromString(price),
		Threshold:  threshold,
		SupplierID: supplierID,
	}, f.actor)
	require.NoError(t, err)
	return p
}

func (f *fixture) record(t *testing.T, productID uuid.UUID, d model.Direction, qty int) *LedgerResult {
	t.Helper()
	res, err := f.ledger.RecordTransaction(context.Background(), RecordTransactionRequest{
		ProductID: productID,
		Direction: d,
		Quantity:  qty,
		Reason:    "test movement",
	}, f.actor)
	require.NoError(t, err)
	return res
}

func (f *fixture) quantity(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByIDUnscoped(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

func (f *fixture) entryCount(t *testing.T) int {
	t.Helper()
	entries, err := f.txs.FindAll(context.Background(), 0)
	require.NoError(t, err)
	return len(entries)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
