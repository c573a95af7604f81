package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	catalog service.CatalogService
}

func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// productPayload accepts supplier_id as text so a malformed id becomes a
// field error instead of a decoding failure.
type productPayload struct {
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	Cost            decimal.Decimal `json:"cost"`
	Price           decimal.Decimal `json:"price"`
	Threshold       int             `json:"threshold"`
	SupplierID      string          `json:"supplier_id"`
	OpeningQuantity int             `json:"opening_quantity"`
	Quantity        *int            `json:"quantity"`
}

func (p productPayload) supplierID() (uuid.UUID, error) {
	if p.SupplierID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(p.SupplierID)
	if err != nil {
		return uuid.Nil, service.NewValidationError("supplier_id", "The selected supplier_id is invalid.")
	}
	return id, nil
}

// CreateProduct handles product creation
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	user, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	var payload productPayload
	if err := c.BodyParser(&payload); err != nil {
		return invalidJSON(c)
	}
	supplierID, err := payload.supplierID()
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), service.CreateProductRequest{
		Name:            payload.Name,
		SKU:             payload.SKU,
		Cost:            payload.Cost,
		Price:           payload.Price,
		Threshold:       payload.Threshold,
		SupplierID:      supplierID,
		OpeningQuantity: payload.OpeningQuantity,
	}, user)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// UpdateProduct edits master data; stock only moves through transactions
// PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	user, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "product")
	}

	var payload productPayload
	if err := c.BodyParser(&payload); err != nil {
		return invalidJSON(c)
	}
	supplierID, err := payload.supplierID()
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), id, service.UpdateProductRequest{
		Name:       payload.Name,
		SKU:        payload.SKU,
		Cost:       payload.Cost,
		Price:      payload.Price,
		Threshold:  payload.Threshold,
		SupplierID: supplierID,
		Quantity:   payload.Quantity,
	}, user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetTrashedProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListTrashedProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "product")
	}

	product, err := h.catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	user, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "product")
	}

	if err := h.catalog.DeleteProduct(c.UserContext(), id, user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product moved to trash"})
}

func (h *ProductHandler) RestoreProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "product")
	}

	if err := h.catalog.RestoreProduct(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product restored"})
}

func (h *ProductHandler) ForceDeleteProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "product")
	}

	if err := h.catalog.ForceDeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product permanently deleted"})
}
