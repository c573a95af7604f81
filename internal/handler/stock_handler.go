package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	stock service.StockService
}

func NewStockHandler(stock service.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// GetSummary returns stock totals, alerts and recent activity
// GET /api/v1/stock-management
func (h *StockHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.stock.Summary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetDashboard returns the admin overview
// GET /api/v1/dashboard
func (h *StockHandler) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := h.stock.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dashboard)
}
