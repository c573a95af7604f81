package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

// recordAt posts a movement with the ledger clock set to at. Calls must be
// made in chronological order.
func (f *fixture) recordAt(t *testing.T, at time.Time, productID uuid.UUID, d model.Direction, qty int) {
	t.Helper()
	f.clock.Set(at)
	f.record(t, productID, d, qty)
}

func TestGenerate_ProfitMargin(t *testing.T) {
	f := newFixture(t)
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "7.50", "10", 0)
	f.recordAt(t, day(10).Add(9*time.Hour), p.ID, model.DirectionIn, 100)
	f.recordAt(t, day(11).Add(9*time.Hour), p.ID, model.DirectionOut, 100)
	f.clock.Set(day(15))

	report, err := f.reports.Generate(context.Background(), ReportFilter{})
	require.NoError(t, err)

	m := report.Metrics
	assert.True(t, dec("1000").Equal(m.TotalSales), m.TotalSales.String())
	assert.True(t, dec("750").Equal(m.TotalOutboundCost), m.TotalOutboundCost.String())
	assert.True(t, dec("750").Equal(m.TotalInbound), m.TotalInbound.String())
	assert.Equal(t, "25.00", m.ProfitMargin.StringFixed(2))
	assert.EqualValues(t, 1, m.LowStock)
}

func TestProfitMargin(t *testing.T) {
	assert.True(t, ProfitMargin(dec("0"), dec("0")).IsZero())
	assert.True(t, ProfitMargin(dec("0"), dec("50")).IsZero())
	assert.Equal(t, "25.00", ProfitMargin(dec("1000"), dec("750")).StringFixed(2))
	assert.Equal(t, "33.33", ProfitMargin(dec("30"), dec("20")).StringFixed(2))
	assert.Equal(t, "-50.00", ProfitMargin(dec("100"), dec("150")).StringFixed(2))
}

func TestGenerate_NoSalesHasZeroMargin(t *testing.T) {
	f := newFixture(t)
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "10", "15", 0)
	f.recordAt(t, day(14), p.ID, model.DirectionIn, 10)

	report, err := f.reports.Generate(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.True(t, report.Metrics.TotalSales.IsZero())
	assert.True(t, report.Metrics.ProfitMargin.IsZero())
	assert.True(t, dec("100").Equal(report.Metrics.TotalInbound))
}

func TestGenerate_DefaultRangeIsDense(t *testing.T) {
	f := newFixture(t)
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "10", "15", 0)
	f.recordAt(t, day(7).Add(23*time.Hour), p.ID, model.DirectionIn, 50)
	f.recordAt(t, day(8).Add(1*time.Hour), p.ID, model.DirectionIn, 5)
	f.recordAt(t, day(12).Add(10*time.Hour), p.ID, model.DirectionOut, 3)
	f.recordAt(t, day(12).Add(11*time.Hour), p.ID, model.DirectionOut, 2)
	f.clock.Set(day(15).Add(13 * time.Hour))

	report, err := f.reports.Generate(context.Background(), ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-08", report.Filters.StartDate)
	assert.Equal(t, "2024-03-15", report.Filters.EndDate)
	require.Len(t, report.ChartData, 8)
	for i, point := range report.ChartData {
		assert.Equal(t, day(8+i).Format(DateLayout), point.Date)
	}
	assert.Equal(t, ChartPoint{Date: "2024-03-08", Inbound: 5}, report.ChartData[0])
	assert.Equal(t, ChartPoint{Date: "2024-03-12", Outbound: 5}, report.ChartData[4])
	assert.Equal(t, ChartPoint{Date: "2024-03-15"}, report.ChartData[7])

	// the inbound of the 7th lies before the window
	assert.True(t, dec("50").Equal(report.Metrics.TotalInbound), report.Metrics.TotalInbound.String())
}

func TestGenerate_DateRangeIsInclusive(t *testing.T) {
	f := newFixture(t)
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "10", "15", 0)
	f.recordAt(t, day(1).Add(12*time.Hour), p.ID, model.DirectionIn, 10)
	f.recordAt(t, day(3), p.ID, model.DirectionOut, 1)
	f.recordAt(t, day(3).Add(23*time.Hour+59*time.Minute), p.ID, model.DirectionOut, 2)
	f.recordAt(t, day(4), p.ID, model.DirectionOut, 4)

	report, err := f.reports.Generate(context.Background(), ReportFilter{StartDate: day(2), EndDate: day(3)})
	require.NoError(t, err)

	assert.Equal(t, []ChartPoint{
		{Date: "2024-03-02"},
		{Date: "2024-03-03", Outbound: 3},
	}, report.ChartData)
	assert.True(t, dec("45").Equal(report.Metrics.TotalSales), report.Metrics.TotalSales.String())
	assert.True(t, report.Metrics.TotalInbound.IsZero())

	// units sold and revenue per product are all-time figures
	require.Len(t, report.Products, 1)
	assert.Equal(t, 7, report.Products[0].UnitsSold)
	assert.True(t, dec("105").Equal(report.Products[0].Revenue))
}

func TestGenerate_StartAfterEnd(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.Generate(context.Background(), ReportFilter{StartDate: day(5), EndDate: day(4)})
	assert.Contains(t, validationFields(t, err), "endDate")
}

func TestGenerate_UnknownSupplier(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	_, err := f.reports.Generate(context.Background(), ReportFilter{SupplierID: &id})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestGenerate_SupplierFilter(t *testing.T) {
	f := newFixture(t)
	acme := f.newSupplier(t, "Acme")
	globex := f.newSupplier(t, "Globex")
	a := f.newProduct(t, acme.ID, "A-1", "1", "2", 0)
	g := f.newProduct(t, globex.ID, "G-1", "10", "20", 100)
	f.recordAt(t, day(14), a.ID, model.DirectionIn, 10)
	f.recordAt(t, day(14).Add(time.Hour), g.ID, model.DirectionIn, 10)
	f.recordAt(t, day(14).Add(2*time.Hour), g.ID, model.DirectionOut, 4)

	report, err := f.reports.Generate(context.Background(), ReportFilter{SupplierID: &globex.ID})
	require.NoError(t, err)

	assert.True(t, dec("80").Equal(report.Metrics.TotalSales), report.Metrics.TotalSales.String())
	assert.True(t, dec("100").Equal(report.Metrics.TotalInbound), report.Metrics.TotalInbound.String())
	assert.Equal(t, "50.00", report.Metrics.ProfitMargin.StringFixed(2))
	assert.EqualValues(t, 1, report.Metrics.LowStock)
	require.Len(t, report.Products, 1)
	assert.Equal(t, "G-1", report.Products[0].SKU)
	assert.Equal(t, model.StockLevelLow, report.Products[0].StockLevel)
	require.NotNil(t, report.Filters.SupplierID)
	assert.Equal(t, globex.ID, *report.Filters.SupplierID)

	// every supplier stays selectable
	require.Len(t, report.Suppliers, 2)
	assert.Equal(t, "Acme", report.Suppliers[0].Name)
}

// interleavedProducts runs onLoad once, right after the report loaded its
// product rows and before it reads the ledger.
type interleavedProducts struct {
	repository.ProductRepository
	once   *sync.Once
	onLoad func()
}

func (r *interleavedProducts) WithTx(tx *gorm.DB) repository.ProductRepository {
	return &interleavedProducts{ProductRepository: r.ProductRepository.WithTx(tx), once: r.once, onLoad: r.onLoad}
}

func (r *interleavedProducts) FindActive(ctx context.Context, supplierID *uuid.UUID) ([]model.Product, error) {
	products, err := r.ProductRepository.FindActive(ctx, supplierID)
	r.once.Do(r.onLoad)
	return products, err
}

func TestGenerate_CommitDuringReportKeepsOneSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "5", "10", 5)
	f.recordAt(t, day(14), p.ID, model.DirectionIn, 10)
	f.clock.Set(day(15))

	committed := make(chan error, 1)
	products := &interleavedProducts{
		ProductRepository: f.products,
		once:              &sync.Once{},
		onLoad: func() {
			go func() {
				_, err := f.ledger.RecordTransaction(ctx, RecordTransactionRequest{
					ProductID: p.ID,
					Direction: model.DirectionOut,
					Quantity:  8,
					Reason:    "sale",
				}, f.actor)
				committed <- err
			}()
		},
	}
	reports := NewReportService(f.db, products, f.suppliers, f.txs, zap.NewNop(), WithReportClock(f.clock.Now))

	before, err := reports.Generate(ctx, ReportFilter{})
	require.NoError(t, err)
	require.NoError(t, <-committed)

	require.Len(t, before.Products, 1)
	assert.EqualValues(t, 0, before.Metrics.LowStock)
	assert.Equal(t, model.StockLevelOK, before.Products[0].StockLevel)
	assert.Equal(t, 10, before.Products[0].Quantity)
	assert.Equal(t, 0, before.Products[0].UnitsSold)
	assert.True(t, before.Metrics.TotalSales.IsZero(), before.Metrics.TotalSales.String())

	after, err := reports.Generate(ctx, ReportFilter{})
	require.NoError(t, err)

	require.Len(t, after.Products, 1)
	assert.EqualValues(t, 1, after.Metrics.LowStock)
	assert.Equal(t, model.StockLevelLow, after.Products[0].StockLevel)
	assert.Equal(t, 2, after.Products[0].Quantity)
	assert.Equal(t, 8, after.Products[0].UnitsSold)
	assert.True(t, dec("80").Equal(after.Metrics.TotalSales), after.Metrics.TotalSales.String())
}

func TestGenerate_UsesFrozenValuesAfterPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "5", "10", 0)
	f.recordAt(t, day(14), p.ID, model.DirectionIn, 10)
	f.recordAt(t, day(14).Add(time.Hour), p.ID, model.DirectionOut, 4)

	before, err := f.reports.Generate(ctx, ReportFilter{})
	require.NoError(t, err)

	_, err = f.catalog.UpdateProduct(ctx, p.ID, UpdateProductRequest{
		Name: p.Name, SKU: p.SKU, Cost: dec("8"), Price: dec("25"), SupplierID: s.ID,
	}, f.actor)
	require.NoError(t, err)

	after, err := f.reports.Generate(ctx, ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, before.Metrics.TotalSales.String(), after.Metrics.TotalSales.String())
	assert.Equal(t, before.Metrics.TotalOutboundCost.String(), after.Metrics.TotalOutboundCost.String())
	assert.Equal(t, before.Metrics.TotalInbound.String(), after.Metrics.TotalInbound.String())
	assert.Equal(t, before.Metrics.ProfitMargin.String(), after.Metrics.ProfitMargin.String())
	assert.True(t, dec("40").Equal(after.Metrics.TotalSales))
	assert.True(t, dec("40").Equal(after.Products[0].Revenue))
}

func TestGenerate_ProductRowsOrderedByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSupplier(t, "Acme")

	for _, req := range []CreateProductRequest{
		{Name: "Zeta", SKU: "Z-1"},
		{Name: "Alpha", SKU: "A-2"},
		{Name: "Alpha", SKU: "A-1"},
	} {
		req.Cost, req.Price, req.SupplierID = dec("1"), dec("2"), s.ID
		_, err := f.catalog.CreateProduct(ctx, req, f.actor)
		require.NoError(t, err)
	}

	report, err := f.reports.Generate(ctx, ReportFilter{})
	require.NoError(t, err)
	require.Len(t, report.Products, 3)
	assert.Equal(t, "A-1", report.Products[0].SKU)
	assert.Equal(t, "A-2", report.Products[1].SKU)
	assert.Equal(t, "Z-1", report.Products[2].SKU)
	assert.Zero(t, report.Products[2].UnitsSold)
	assert.True(t, report.Products[2].Revenue.IsZero())
}

func TestGenerate_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "3.33", "9.99", 2)
	f.recordAt(t, day(13), p.ID, model.DirectionIn, 7)
	f.recordAt(t, day(14), p.ID, model.DirectionOut, 3)

	first, err := f.reports.Generate(ctx, ReportFilter{})
	require.NoError(t, err)
	second, err := f.reports.Generate(ctx, ReportFilter{})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestExport_Workbook(t *testing.T) {
	f := newFixture(t)
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "SKU1", "7.50", "10", 0)
	f.recordAt(t, day(14), p.ID, model.DirectionIn, 100)
	f.recordAt(t, day(14).Add(time.Hour), p.ID, model.DirectionOut, 100)

	data, err := f.reports.Export(context.Background(), ReportFilter{SupplierID: &s.ID})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{summarySheet, movementSheet, productSheet}, wb.GetSheetList())

	start, err := wb.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", start)
	supplier, err := wb.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Acme", supplier)
	margin, err := wb.GetCellValue(summarySheet, "B8")
	require.NoError(t, err)
	assert.Equal(t, "25", margin)

	rows, err := wb.GetRows(movementSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 9)

	name, err := wb.GetCellValue(productSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Product SKU1", name)
}

func TestExport_PropagatesValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.Export(context.Background(), ReportFilter{StartDate: day(5), EndDate: day(1)})
	assert.Contains(t, validationFields(t, err), "endDate")
}
