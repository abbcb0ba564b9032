package auth

import (
	"strings"

	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/gofiber/fiber/v2"
)

// TokenMiddleware authenticates bearer access tokens with Fiber.
type TokenMiddleware struct {
	tokenService TokenService
}

func NewAuthMiddleware(tokenService TokenService) *TokenMiddleware {
	return &TokenMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates the bearer token and stores the caller identity.
// When tenant.Middleware ran first, a token issued for another tenant is
// rejected.
func (am *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return iam.ErrUnauthorized()
		}

		claims, err := am.tokenService.ValidateAccessToken(token)
		if err != nil {
			return iam.ErrInvalidToken().WithCause(err)
		}

		if scope, ok := tenant.ScopeFrom(c); ok && scope.Tenant.ID != claims.TenantID {
			return iam.ErrInvalidToken().WithDetail("reason", "token issued for another tenant")
		}

		c.Locals(kernel.AuthContextKey, claims.AuthContext())
		return c.Next()
	}
}

// RequireRole admits callers whose role ranks at or above min.
func (am *TokenMiddleware) RequireRole(min iam.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return iam.ErrUnauthorized()
		}

		if !iam.Role(authContext.Role).AtLeast(min) {
			return iam.ErrAccessDenied().WithDetail("required_role", min.String())
		}

		return c.Next()
	}
}

// GetAuthContext returns the identity stored by Authenticate.
func GetAuthContext(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	authContext, ok := c.Locals(kernel.AuthContextKey).(*kernel.AuthContext)
	return authContext, ok && authContext.IsValid()
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
