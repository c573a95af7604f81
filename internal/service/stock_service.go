package service

import (
	"context"
	"sort"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	recentActivityLimit = 5
	alertLimit          = 10
	topProductsLimit    = 10
)

type StockSummary struct {
	TotalStock     int                      `json:"total_stock"`
	LowStock       int                      `json:"low_stock"`
	OutOfStock     int                      `json:"out_of_stock"`
	InventoryValue decimal.Decimal          `json:"inventory_value"`
	Recent         []model.StockTransaction `json:"recent_transactions"`
	LowStockAlerts []model.Product          `json:"low_stock_alerts"`
	TopProducts    []model.Product          `json:"top_products"`
}

// Dashboard is the admin overview: the stock summary plus catalogue and
// account counts.
type Dashboard struct {
	StockSummary
	TotalProducts int   `json:"total_products"`
	ActiveUsers   int64 `json:"active_users"`
}

type StockService interface {
	Summary(ctx context.Context) (*StockSummary, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type stockService struct {
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	userRepo    repository.UserRepository
}

func NewStockService(
	productRepo repository.ProductRepository,
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
) StockService {
	return &stockService{productRepo: productRepo, txRepo: txRepo, userRepo: userRepo}
}

func (s *stockService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		summary     *StockSummary
		products    int
		activeUsers int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary, products, err = s.summary(gctx)
		return err
	})
	g.Go(func() (err error) {
		activeUsers, err = s.userRepo.CountActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Dashboard{StockSummary: *summary, TotalProducts: products, ActiveUsers: activeUsers}, nil
}

func (s *stockService) Summary(ctx context.Context) (*StockSummary, error) {
	summary, _, err := s.summary(ctx)
	return summary, err
}

// summary also returns the number of live products it was built from.
func (s *stockService) summary(ctx context.Context) (*StockSummary, int, error) {
	var (
		products []model.Product
		recent   []model.StockTransaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.productRepo.FindActive(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.txRepo.FindAll(gctx, recentActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	summary := &StockSummary{
		InventoryValue: decimal.Zero,
		Recent:         recent,
		LowStockAlerts: []model.Product{},
	}
	for _, p := range products {
		summary.TotalStock += p.Quantity
		summary.InventoryValue = summary.InventoryValue.Add(p.Cost.Mul(decimal.NewFromInt(int64(p.Quantity))))
		if p.Quantity == 0 {
			summary.OutOfStock++
		}
		if p.IsLowStock() {
			summary.LowStock++
			summary.LowStockAlerts = append(summary.LowStockAlerts, p)
		}
	}
	summary.InventoryValue = summary.InventoryValue.Round(2)

	// products arrive ordered by name, stable sorts keep that as the tiebreak
	sort.SliceStable(summary.LowStockAlerts, func(i, j int) bool {
		return summary.LowStockAlerts[i].Quantity < summary.LowStockAlerts[j].Quantity
	})
	if len(summary.LowStockAlerts) > alertLimit {
		summary.LowStockAlerts = summary.LowStockAlerts[:alertLimit]
	}

	top := make([]model.Product, len(products))
	copy(top, products)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Quantity > top[j].Quantity
	})
	if len(top) > topProductsLimit {
		top = top[:topProductsLimit]
	}
	summary.TopProducts = top
	return summary, len(products), nil
}
