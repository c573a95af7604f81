package handler

import (
	"encoding/json"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 500
	maxQuantity             = 1<<31 - 1
)

type TransactionHandler struct {
	ledger service.LedgerService
}

func NewTransactionHandler(ledger service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// transactionPayload is the wire form of a stock movement. The direction is
// spelled inbound/outbound and quantity is kept as a raw number so that
// fractional values can be reported as a field error.
type transactionPayload struct {
	ProductID string      `json:"product_id"`
	Type      string      `json:"type"`
	Quantity  json.Number `json:"quantity"`
	Reason    string      `json:"reason"`
	Notes     *string     `json:"notes"`
}

var wireDirections = map[string]model.Direction{
	"inbound":  model.DirectionIn,
	"in":       model.DirectionIn,
	"outbound": model.DirectionOut,
	"out":      model.DirectionOut,
}

func (p transactionPayload) request() (service.RecordTransactionRequest, error) {
	req := service.RecordTransactionRequest{Reason: p.Reason, Notes: p.Notes}
	fields := map[string]string{}

	if p.ProductID != "" {
		id, err := uuid.Parse(p.ProductID)
		if err != nil {
			fields["product_id"] = "The selected product_id is invalid."
		}
		req.ProductID = id
	}

	t := strings.ToLower(strings.TrimSpace(p.Type))
	if d, ok := wireDirections[t]; ok {
		req.Direction = d
	} else {
		req.Direction = model.Direction(t)
	}

	switch {
	case p.Quantity == "":
		fields["quantity"] = "The quantity field is required."
	default:
		n, err := p.Quantity.Int64()
		if err != nil {
			fields["quantity"] = "The quantity field must be an integer."
		} else if n > maxQuantity {
			fields["quantity"] = "The quantity field must not be greater than 2147483647."
		} else {
			req.Quantity = int(n)
		}
	}

	if len(fields) > 0 {
		return req, &service.ValidationError{Fields: fields}
	}
	return req, nil
}

// CreateTransaction records a stock movement
// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	user, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	var payload transactionPayload
	if err := c.BodyParser(&payload); err != nil {
		return invalidJSON(c)
	}

	req, err := payload.request()
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.ledger.RecordTransaction(c.UserContext(), req, user)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": result})
}

// GetTransactions lists ledger entries newest first
// GET /api/v1/transactions?limit=100
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultTransactionLimit)
	if limit < 1 || limit > maxTransactionLimit {
		limit = defaultTransactionLimit
	}

	transactions, err := h.ledger.ListTransactions(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

// GetTransaction returns a single ledger entry
// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "transaction")
	}

	tx, err := h.ledger.GetTransaction(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}
