package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetUsers returns all accounts
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// CreateUser handles account creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	admin, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.users.CreateUser(c.UserContext(), req, admin)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User created", "data": user})
}

// UpdateUserRole assigns admin, manager or user
// PUT /api/v1/users/:id/role
func (h *UserHandler) UpdateUserRole(c *fiber.Ctx) error {
	admin, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "user")
	}

	var req service.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.users.UpdateRole(c.UserContext(), id, req, admin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User role updated", "data": user})
}

// DeleteUser handles account removal
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	admin, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "user")
	}

	if err := h.users.DeleteUser(c.UserContext(), id, admin); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
