package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if fields := validator.ValidateStruct(&req); fields != nil {
		return respondError(c, &service.ValidationError{Fields: fields})
	}

	response, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(response)
}

// Me returns the authenticated user's identity
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthenticated(c)
	}
	role, _ := c.Locals(middleware.LocalUserRole).(string)
	return c.JSON(fiber.Map{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
		"role":  role,
	})
}
