package authapi

import (
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/httpx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/auth/authsrv"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes authsrv over HTTP.
type Handlers struct {
	service *authsrv.AuthService
	name    string
}

func NewHandlers(service *authsrv.AuthService, serviceName string) *Handlers {
	return &Handlers{service: service, name: serviceName}
}

// Register mounts the routes on router. tenantScope must resolve the
// tenant; authenticated guards bearer routes.
func (h *Handlers) Register(router fiber.Router, tenantScope, authenticated fiber.Handler) {
	router.Get("/health", h.Health)

	router.Post("/login", tenantScope, h.Login)
	router.Post("/refresh", tenantScope, h.Refresh)
	router.Post("/forgot-password", tenantScope, h.ForgotPassword)
	router.Post("/reset-password", tenantScope, h.ResetPassword)
	router.Post("/logout", tenantScope, authenticated, h.Logout)
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return httpx.OK(c, fiber.Map{
		"status":    "ok",
		"service":   h.name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	var body LoginPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	res, err := h.service.Login(c.UserContext(), scope, body.Email, body.Password, clientOf(c))
	if err != nil {
		return err
	}
	return httpx.OK(c, res)
}

func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var body RefreshPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	pair, err := h.service.Refresh(c.UserContext(), scope, body.RefreshToken, clientOf(c))
	if err != nil {
		return err
	}
	return httpx.OK(c, pair)
}

func (h *Handlers) Logout(c *fiber.Ctx) error {
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	ac, ok := auth.GetAuthContext(c)
	if !ok {
		return iam.ErrUnauthorized()
	}
	if err := h.service.Logout(c.UserContext(), scope, ac.UserID, clientOf(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) ForgotPassword(c *fiber.Ctx) error {
	var body ForgotPasswordPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	res, err := h.service.ForgotPassword(c.UserContext(), scope, body.Email, clientOf(c))
	if err != nil {
		return err
	}
	return httpx.OK(c, res)
}

func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var body ResetPasswordPayload
	if err := httpx.Bind(c, &body, invalid); err != nil {
		return err
	}
	scope, err := scopeOf(c)
	if err != nil {
		return err
	}
	res, err := h.service.ResetPassword(c.UserContext(), scope, body.Token, body.NewPassword, body.NewPasswordConfirmation, clientOf(c))
	if err != nil {
		return err
	}
	return httpx.OK(c, res)
}

func invalid() *errx.Error {
	return auth.ErrValidation("Invalid request")
}

func scopeOf(c *fiber.Ctx) (*tenant.Scope, error) {
	scope, ok := tenant.ScopeFrom(c)
	if !ok {
		return nil, tenant.ErrTenantMissing()
	}
	return scope, nil
}

func clientOf(c *fiber.Ctx) authsrv.ClientInfo {
	ip, ua := httpx.Client(c)
	return authsrv.ClientInfo{IP: ip, UserAgent: ua}
}
