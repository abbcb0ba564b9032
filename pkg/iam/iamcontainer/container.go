package iamcontainer

import (
	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/auth/authapi"
	"github.com/fieldops360/auth-service/pkg/iam/auth/authinfra"
	"github.com/fieldops360/auth-service/pkg/iam/auth/authsrv"
	"github.com/fieldops360/auth-service/pkg/iam/user/userapi"
	"github.com/fieldops360/auth-service/pkg/iam/user/usersrv"
	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/fieldops360/auth-service/pkg/notifx"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/gofiber/fiber/v2"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	Cfg      *config.Config
	Keys     *auth.KeyPair
	Resolver *tenant.Resolver

	// Mailer delivers password reset codes. Nil disables delivery.
	Mailer *notifx.Client

	// Recorder receives auth outcomes. Nil means no recording.
	Recorder authsrv.Recorder
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// ---------------------------------------------------------------------------

type Container struct {
	TokenService auth.TokenService
	AuthService  *authsrv.AuthService
	UserService  *usersrv.UserService

	AuthHandlers *authapi.Handlers
	UserHandlers *userapi.Handlers

	AuthMiddleware *auth.TokenMiddleware
	TenantScope    fiber.Handler
}

// New constructs the IAM dependency graph.
// Order matters: infra → services → handlers → middleware.
func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	cfg := deps.Cfg
	c := &Container{}

	// ── Infrastructure services ──────────────────────────────────────────

	passwordSvc := authinfra.NewBcryptPasswordService(cfg.Auth.Password.BcryptCost)
	auditService := authinfra.NewLogxAuditService()
	secrets := auth.NewRandomTokenGenerator(cfg.Auth.RefreshTokenBytes)

	c.TokenService = auth.NewJWTService(
		deps.Keys,
		cfg.Auth.JWT.AccessTokenTTL,
		cfg.Auth.JWT.Issuer,
		cfg.Auth.JWT.Audience,
	)
	if deps.Keys.Ephemeral {
		logx.Warn("  ⚠️  Using ephemeral JWT keys, tokens will not survive a restart")
	}

	// ── Domain services ──────────────────────────────────────────────────

	opts := []authsrv.Option{authsrv.WithDelivery(deliveryFromConfig(cfg.Notifx))}
	if deps.Recorder != nil {
		opts = append(opts, authsrv.WithRecorder(deps.Recorder))
	}

	c.AuthService = authsrv.NewAuthService(
		c.TokenService,
		passwordSvc,
		secrets,
		auditService,
		deps.Mailer,
		authsrv.PolicyFromConfig(cfg.Auth),
		opts...,
	)

	c.UserService = usersrv.NewUserService(passwordSvc, auditService)

	// ── API handlers ─────────────────────────────────────────────────────

	c.AuthHandlers = authapi.NewHandlers(c.AuthService, cfg.App.Name)
	c.UserHandlers = userapi.NewHandlers(c.UserService)

	// ── Middleware ────────────────────────────────────────────────────────

	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService)
	c.TenantScope = tenant.Middleware(deps.Resolver)

	logx.Info("✅ IAM container initialized")
	return c
}

// RegisterRoutes mounts the auth and user routes on router.
func (c *Container) RegisterRoutes(router fiber.Router) {
	c.AuthHandlers.Register(router, c.TenantScope, c.AuthMiddleware.Authenticate())
	c.UserHandlers.Register(router, c.TenantScope, c.AuthMiddleware)
}

func deliveryFromConfig(cfg config.NotifxConfig) authsrv.Delivery {
	d := authsrv.DefaultDelivery()
	if cfg.Retries > 0 {
		d.Attempts = cfg.Retries
	}
	return d
}
