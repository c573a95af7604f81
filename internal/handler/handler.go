package handler

import (
	"errors"
	"strings"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const insufficientStockMessage = "Cannot process outbound. Quantity exceeds available stock."

// actor builds the acting user from the locals RequireAuth sets. It fails
// when the user ID local is missing or not a UUID.
func actor(c *fiber.Ctx) (service.Actor, bool) {
	var a service.Actor
	id, _ := c.Locals(middleware.LocalUserID).(string)
	parsed, err := uuid.Parse(id)
	if err != nil {
		return a, false
	}
	a.ID = parsed
	a.Name, _ = c.Locals(middleware.LocalUserName).(string)
	a.Email, _ = c.Locals(middleware.LocalUserEmail).(string)
	return a, true
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthenticated"})
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func invalidID(c *fiber.Ctx, resource string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + resource + " ID"})
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

// respondError maps service errors to HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr   *service.ValidationError
		insufficientErr *service.InsufficientStockError
		notFoundErr     *service.NotFoundError
		conflictErr     *service.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "The given data was invalid.",
			"fields": validationErr.Fields,
		})
	case errors.As(err, &insufficientErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":     insufficientStockMessage,
			"fields":    fiber.Map{"quantity": insufficientStockMessage},
			"available": insufficientErr.Available,
		})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": capitalize(notFoundErr.Resource) + " not found"})
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": conflictErr.Message})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUserInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrLedgerBusy):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	zap.L().Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
