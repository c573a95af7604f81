package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DateLayout         = "2006-01-02"
	defaultReportDays  = 7
	maxReportRangeDays = 1096
)

var hundred = decimal.NewFromInt(100)

// ReportFilter selects the ledger window. Zero dates fall back to the last
// seven days through today; both ends are whole days, inclusive.
type ReportFilter struct {
	SupplierID *uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
}

type ReportMetrics struct {
	TotalSales        decimal.Decimal `json:"totalSales"`
	TotalOutboundCost decimal.Decimal `json:"totalOutboundCost"`
	TotalInbound      decimal.Decimal `json:"totalInbound"`
	ProfitMargin      decimal.Decimal `json:"profitMargin"`
	LowStock          int64           `json:"lowStock"`
}

type ChartPoint struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type ProductPerformance struct {
	ProductID  uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	Threshold  int             `json:"threshold"`
	UnitsSold  int             `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
	StockLevel string          `json:"stock_level"`
}

type SupplierOption struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type AppliedFilters struct {
	StartDate  string     `json:"startDate"`
	EndDate    string     `json:"endDate"`
	SupplierID *uuid.UUID `json:"supplierId"`
}

type Report struct {
	Metrics   ReportMetrics        `json:"metrics"`
	ChartData []ChartPoint         `json:"chartData"`
	Products  []ProductPerformance `json:"products"`
	Suppliers []SupplierOption     `json:"suppliers"`
	Filters   AppliedFilters       `json:"filters"`
}

type ReportService interface {
	Generate(ctx context.Context, filter ReportFilter) (*Report, error)
	Export(ctx context.Context, filter ReportFilter) ([]byte, error)
}

type ReportOption func(*reportService)

// WithReportClock sets the clock used to resolve default date ranges.
func WithReportClock(now func() time.Time) ReportOption {
	return func(s *reportService) {
		s.now = now
	}
}

type reportService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	txRepo       repository.TransactionRepository
	log          *zap.Logger
	now          func() time.Time
}

func NewReportService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	txRepo repository.TransactionRepository,
	log *zap.Logger,
	opts ...ReportOption,
) ReportService {
	s := &reportService{
		db:           db,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		txRepo:       txRepo,
		log:          log.Named("reports"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate derives every figure from the frozen values stored on ledger
// entries, so later cost or price edits never rewrite history.
func (s *reportService) Generate(ctx context.Context, filter ReportFilter) (*Report, error) {
	startDay, endDay, err := s.resolveRange(filter)
	if err != nil {
		return nil, err
	}
	if filter.SupplierID != nil {
		if _, err := s.supplierRepo.FindByIDUnscoped(ctx, *filter.SupplierID); err != nil {
			if repository.IsNotFound(err) {
				return nil, &NotFoundError{Resource: "supplier", ID: *filter.SupplierID}
			}
			return nil, err
		}
	}

	from := startDay
	to := endDay.AddDate(0, 0, 1)

	var (
		inRange   []model.StockTransaction
		outbound  []model.StockTransaction
		products  []model.Product
		suppliers []model.Supplier
	)

	// Ledger and product reads share one snapshot so totals, chart and
	// product rows never disagree; the supplier list does not need to.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return repository.ReadSnapshot(gctx, s.db, func(tx *gorm.DB) (err error) {
			txRepo, productRepo := s.txRepo.WithTx(tx), s.productRepo.WithTx(tx)
			if products, err = productRepo.FindActive(gctx, filter.SupplierID); err != nil {
				return err
			}
			inRange, err = txRepo.FindEntries(gctx, repository.LedgerQuery{SupplierID: filter.SupplierID, From: &from, To: &to})
			if err != nil {
				return err
			}
			outbound, err = txRepo.FindEntries(gctx, repository.LedgerQuery{SupplierID: filter.SupplierID, Type: model.DirectionOut})
			return err
		})
	})
	g.Go(func() (err error) {
		suppliers, err = s.supplierRepo.FindAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics := summarize(inRange)
	for i := range products {
		if products[i].IsLowStock() {
			metrics.LowStock++
		}
	}

	report := &Report{
		Metrics:   metrics,
		ChartData: dailySeries(inRange, startDay, endDay),
		Products:  performance(products, outbound),
		Suppliers: make([]SupplierOption, len(suppliers)),
		Filters: AppliedFilters{
			StartDate:  startDay.Format(DateLayout),
			EndDate:    endDay.Format(DateLayout),
			SupplierID: filter.SupplierID,
		},
	}
	for i, sp := range suppliers {
		report.Suppliers[i] = SupplierOption{ID: sp.ID, Name: sp.Name}
	}

	s.log.Debug("report generated",
		zap.String("start", report.Filters.StartDate),
		zap.String("end", report.Filters.EndDate),
		zap.Int("entries", len(inRange)))
	return report, nil
}

func (s *reportService) resolveRange(filter ReportFilter) (time.Time, time.Time, error) {
	today := startOfDay(s.now())
	start, end := filter.StartDate, filter.EndDate
	if end.IsZero() {
		end = today
	}
	if start.IsZero() {
		start = startOfDay(end).AddDate(0, 0, -defaultReportDays)
	}
	start, end = startOfDay(start), startOfDay(end)

	if end.Before(start) {
		return time.Time{}, time.Time{}, NewValidationError("endDate", "The end date must be a date after or equal to start date.")
	}
	if end.Sub(start) > maxReportRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, NewValidationError("startDate", "The date range may span at most three years.")
	}
	return start, end, nil
}

// ProfitMargin returns the gross margin in percent rounded to two places,
// or zero when there were no sales.
func ProfitMargin(sales, cogs decimal.Decimal) decimal.Decimal {
	if sales.IsZero() {
		return decimal.Zero
	}
	return sales.Sub(cogs).Mul(hundred).Div(sales).Round(2)
}

func summarize(entries []model.StockTransaction) ReportMetrics {
	sales, cogs, inbound := decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case model.DirectionOut:
			sales = sales.Add(e.Value)
			cogs = cogs.Add(e.UnitCost.Mul(decimal.NewFromInt(int64(e.Quantity))))
		case model.DirectionIn:
			inbound = inbound.Add(e.Value)
		}
	}
	return ReportMetrics{
		TotalSales:        sales.Round(2),
		TotalOutboundCost: cogs.Round(2),
		TotalInbound:      inbound.Round(2),
		ProfitMargin:      ProfitMargin(sales, cogs),
	}
}

// dailySeries returns one point per calendar day in [start, end], including
// days without movements.
func dailySeries(entries []model.StockTransaction, start, end time.Time) []ChartPoint {
	index := make(map[string]int)
	var series []ChartPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		index[key] = len(series)
		series = append(series, ChartPoint{Date: key})
	}

	for _, e := range entries {
		i, ok := index[e.CreatedAt.UTC().Format(DateLayout)]
		if !ok {
			continue
		}
		if e.Type == model.DirectionIn {
			series[i].Inbound += e.Quantity
		} else {
			series[i].Outbound += e.Quantity
		}
	}
	return series
}

// performance lists live products with their all-time outbound totals.
func performance(products []model.Product, outbound []model.StockTransaction) []ProductPerformance {
	type totals struct {
		units   int
		revenue decimal.Decimal
	}
	byProduct := make(map[uuid.UUID]*totals)
	for _, e := range outbound {
		t, ok := byProduct[e.ProductID]
		if !ok {
			t = &totals{revenue: decimal.Zero}
			byProduct[e.ProductID] = t
		}
		t.units += e.Quantity
		t.revenue = t.revenue.Add(e.Value)
	}

	rows := make([]ProductPerformance, len(products))
	for i := range products {
		p := &products[i]
		row := ProductPerformance{
			ProductID:  p.ID,
			Name:       p.Name,
			SKU:        p.SKU,
			Quantity:   p.Quantity,
			Threshold:  p.Threshold,
			Revenue:    decimal.Zero,
			StockLevel: p.StockLevel(),
		}
		if t, ok := byProduct[p.ID]; ok {
			row.UnitsSold = t.units
			row.Revenue = t.revenue.Round(2)
		}
		rows[i] = row
	}
	return rows
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
