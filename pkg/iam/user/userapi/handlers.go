package userapi

import (
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/httpx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/iam/user/usersrv"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *usersrv.UserService
}

func NewHandlers(service *usersrv.UserService) *Handlers {
	return &Handlers{service: service}
}

// Register mounts the user directory under /users and the caller's own
// profile under /me. Every route needs a tenant and a bearer token.
func (h *Handlers) Register(router fiber.Router, tenantScope fiber.Handler, mw *auth.TokenMiddleware) {
	authenticated := mw.Authenticate()

	me := router.Group("/me", tenantScope, authenticated)
	me.Get("/", h.GetProfile)
	me.Put("/", h.UpdateProfile)
	me.Put("/password", h.ChangePassword)

	users := router.Group("/users", tenantScope, authenticated)
	users.Get("/", mw.RequireRole(iam.RoleProjectManager), h.List)
	users.Post("/", mw.RequireRole(iam.RoleManager), h.Create)
	users.Get("/:id", mw.RequireRole(iam.RoleProjectManager), h.Get)
	users.Put("/:id", mw.RequireRole(iam.RoleManager), h.Update)
	users.Patch("/:id/status", mw.RequireRole(iam.RoleManager), h.SetStatus)
}

func (h *Handlers) List(c *fiber.Ctx) error {
	var q ListQuery
	if err := c.QueryParser(&q); err != nil {
		return invalid().WithDetail("query", "malformed query string").WithCause(err)
	}
	if err := httpx.Validate(q, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), scope, q.Filter())
	if err != nil {
		return err
	}
	return httpx.Page(c, page)
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	var body CreateUserPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	dto, err := h.service.Create(c.UserContext(), scope, body.Request())
	if err != nil {
		return err
	}
	return httpx.Created(c, dto)
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	dto, err := h.service.Get(c.UserContext(), scope, kernel.NewUserID(c.Params("id")))
	if err != nil {
		return err
	}
	return httpx.OK(c, dto)
}

func (h *Handlers) Update(c *fiber.Ctx) error {
	var body UpdateUserPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	dto, err := h.service.Update(c.UserContext(), scope, kernel.NewUserID(c.Params("id")), body.Patch())
	if err != nil {
		return err
	}
	return httpx.OK(c, dto)
}

func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	var body StatusPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	dto, err := h.service.SetActive(c.UserContext(), scope, kernel.NewUserID(c.Params("id")), *body.Active)
	if err != nil {
		return err
	}
	return httpx.OK(c, dto)
}

// ============================================================================
// Profile
// ============================================================================

func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	scope, ac, err := callerOf(c)
	if err != nil {
		return err
	}
	dto, err := h.service.GetProfile(c.UserContext(), scope, ac.UserID)
	if err != nil {
		return err
	}
	return httpx.OK(c, dto)
}

func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var body UpdateProfilePayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, ac, err := callerOf(c)
	if err != nil {
		return err
	}
	dto, err := h.service.UpdateProfile(c.UserContext(), scope, ac.UserID, body.Patch())
	if err != nil {
		return err
	}
	return httpx.OK(c, dto)
}

func (h *Handlers) ChangePassword(c *fiber.Ctx) error {
	var body ChangePasswordPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, ac, err := callerOf(c)
	if err != nil {
		return err
	}
	ip, _ := httpx.Client(c)
	msg, err := h.service.ChangePassword(c.UserContext(), scope, ac.UserID, body.CurrentPassword, body.NewPassword, body.NewPasswordConfirmation, ip)
	if err != nil {
		return err
	}
	return httpx.OK(c, fiber.Map{"message": msg})
}

func invalid() *errx.Error {
	return user.ErrValidation()
}

func scopeOf(c *fiber.Ctx) (*tenant.Scope, error) {
	scope, ok := tenant.ScopeFrom(c)
	if !ok {
		return nil, tenant.ErrTenantMissing()
	}
	return scope, nil
}

func callerOf(c *fiber.Ctx) (*tenant.Scope, *kernel.AuthContext, error) {
	scope, err := scopeOf(c)
	if err != nil {
		return nil, nil, err
	}
	ac, ok := auth.GetAuthContext(c)
	if !ok {
		return nil, nil, iam.ErrUnauthorized()
	}
	return scope, ac, nil
}
