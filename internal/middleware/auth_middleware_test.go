package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUsers struct {
	users map[uuid.UUID]*model.User
}

func (s *stubUsers) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) Create(context.Context, *model.User) error { return nil }

func (s *stubUsers) UpdatePassword(context.Context, uuid.UUID, string) error { return nil }

func (s *stubUsers) FindAll(context.Context) ([]model.User, error) { return nil, nil }

func (s *stubUsers) UpdateRole(context.Context, uuid.UUID, string, string) error { return nil }

func (s *stubUsers) Delete(context.Context, uuid.UUID) error { return nil }

func (s *stubUsers) CountActive(context.Context) (int64, error) { return 0, nil }

func newUser(role string, active bool) *model.User {
	u := &model.User{Name: "Test " + role, Email: role + "@inventory.com", Role: role, IsActive: active}
	u.ID = uuid.New()
	return u
}

func newApp(t *testing.T, users ...*model.User) (*fiber.App, *jwt.Manager) {
	t.Helper()
	tokens := jwt.NewManager("test-secret", time.Hour)
	repo := &stubUsers{users: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}

	app := fiber.New()
	protected := app.Group("", RequireAuth(tokens, repo))
	protected.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":   c.Locals(LocalUserID),
			"role": c.Locals(LocalUserRole),
		})
	})
	protected.Get("/admin", RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	protected.Get("/staff", RequireRole(model.RoleAdmin, model.RoleManager), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, tokens
}

func request(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func tokenFor(t *testing.T, tokens *jwt.Manager, u *model.User) string {
	t.Helper()
	token, err := tokens.GenerateToken(u.ID, u.Email, u.Name, u.Role)
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	active := newUser(model.RoleManager, true)
	inactive := newUser(model.RoleManager, false)
	ghost := newUser(model.RoleAdmin, true)
	app, tokens := newApp(t, active, inactive)

	assert.Equal(t, fiber.StatusOK, request(t, app, "/me", tokenFor(t, tokens, active)))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", "garbage"))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", tokenFor(t, tokens, inactive)))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", tokenFor(t, tokens, ghost)))

	other := jwt.NewManager("another-secret", time.Hour)
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", tokenFor(t, other, active)))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_QueryToken(t *testing.T) {
	u := newUser(model.RoleManager, true)
	app, tokens := newApp(t, u)

	assert.Equal(t, fiber.StatusOK, request(t, app, "/me?token="+tokenFor(t, tokens, u), ""))
}

func TestRequireRole(t *testing.T) {
	admin := newUser(model.RoleAdmin, true)
	manager := newUser(model.RoleManager, true)
	clerk := newUser(model.RoleUser, true)
	app, tokens := newApp(t, admin, manager, clerk)

	assert.Equal(t, fiber.StatusNoContent, request(t, app, "/admin", tokenFor(t, tokens, admin)))
	assert.Equal(t, fiber.StatusForbidden, request(t, app, "/admin", tokenFor(t, tokens, manager)))

	assert.Equal(t, fiber.StatusNoContent, request(t, app, "/staff", tokenFor(t, tokens, manager)))
	assert.Equal(t, fiber.StatusForbidden, request(t, app, "/staff", tokenFor(t, tokens, clerk)))
}

func TestRequireAuth_RoleComesFromDatabase(t *testing.T) {
	u := newUser(model.RoleAdmin, true)
	app, tokens := newApp(t, u)
	token := tokenFor(t, tokens, u)

	u.Role = model.RoleUser
	assert.Equal(t, fiber.StatusForbidden, request(t, app, "/admin", token))
}
