package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SupplierHandler struct {
	suppliers service.SupplierService
}

func NewSupplierHandler(suppliers service.SupplierService) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// CreateSupplier handles supplier creation
// POST /api/v1/suppliers
func (h *SupplierHandler) CreateSupplier(c *fiber.Ctx) error {
	user, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	var req service.SupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	supplier, err := h.suppliers.CreateSupplier(c.UserContext(), req, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Supplier created", "data": supplier})
}

// UpdateSupplier handles supplier edits
// PUT /api/v1/suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *fiber.Ctx) error {
	user, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "supplier")
	}

	var req service.SupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	supplier, err := h.suppliers.UpdateSupplier(c.UserContext(), id, req, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier updated", "data": supplier})
}

func (h *SupplierHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.suppliers.ListSuppliers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(suppliers)
}

func (h *SupplierHandler) GetTrashedSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.suppliers.ListTrashedSuppliers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(suppliers)
}

func (h *SupplierHandler) GetSupplier(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "supplier")
	}

	supplier, err := h.suppliers.GetSupplier(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(supplier)
}

func (h *SupplierHandler) DeleteSupplier(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "supplier")
	}

	if err := h.suppliers.DeleteSupplier(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier moved to trash"})
}

func (h *SupplierHandler) RestoreSupplier(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "supplier")
	}

	if err := h.suppliers.RestoreSupplier(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier restored"})
}

func (h *SupplierHandler) ForceDeleteSupplier(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "supplier")
	}

	if err := h.suppliers.ForceDeleteSupplier(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier permanently deleted"})
}
