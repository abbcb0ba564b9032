package tenant

import (
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// HeaderTenantID names the tenant subdomain on every tenant-scoped request.
const HeaderTenantID = "X-Tenant-ID"

// Middleware resolves the tenant before any handler runs and stores the
// Scope in the request locals.
func Middleware(resolver *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subdomain := NormalizeSubdomain(c.Get(HeaderTenantID))
		if subdomain == "" {
			return ErrTenantMissing()
		}

		scope, err := resolver.Resolve(c.UserContext(), subdomain)
		if err != nil {
			return err
		}

		c.Locals(kernel.TenantContextKey, scope)
		return c.Next()
	}
}

// ScopeFrom returns the Scope stored by Middleware.
func ScopeFrom(c *fiber.Ctx) (*Scope, bool) {
	scope, ok := c.Locals(kernel.TenantContextKey).(*Scope)
	return scope, ok && scope != nil
}
