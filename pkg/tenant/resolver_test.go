package tenant_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/fieldops360/auth-service/pkg/tenant/tenantinfra"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveTenantResolution(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

type failingDirectory struct{}

func (failingDirectory) FindBySubdomain(context.Context, string) (*tenant.Tenant, error) {
	return nil, errors.New("platform db down")
}

func newTestResolver(obs tenant.ResolutionObserver) (*tenant.Resolver, *tenant.ConnectionCache) {
	dir := tenantinfra.NewMemoryDirectory(
		tenant.Tenant{ID: "t-demo", Subdomain: "demo", Location: locA, Active: true},
		tenant.Tenant{ID: "t-acme", Subdomain: "acme", Location: locA, Active: true},
		tenant.Tenant{ID: "t-old", Subdomain: "old", Location: locB, Active: false},
	)
	cache := tenant.NewConnectionCache((&countingOpener{}).Open)
	var opts []tenant.ResolverOption
	if obs != nil {
		opts = append(opts, tenant.WithObserver(obs))
	}
	return tenant.NewResolver(dir, cache, opts...), cache
}

func TestResolver_Resolve(t *testing.T) {
	obs := &recordingObserver{}
	r, cache := newTestResolver(obs)
	ctx := context.Background()

	scope, err := r.Resolve(ctx, " Demo ")
	require.NoError(t, err)
	assert.Equal(t, "demo", scope.Tenant.Subdomain)
	assert.NotNil(t, scope.Store)

	other, err := r.Resolve(ctx, "acme")
	require.NoError(t, err)
	assert.Same(t, scope.Store, other.Store, "tenants on one physical store share the handle")
	assert.Equal(t, 1, cache.Len())

	_, err = r.Resolve(ctx, "nope")
	assert.True(t, errx.HasCode(err, tenant.CodeTenantNotFound))

	_, err = r.Resolve(ctx, "old")
	assert.True(t, errx.HasCode(err, tenant.CodeTenantSuspended))

	_, err = r.Resolve(ctx, "  ")
	assert.True(t, errx.HasCode(err, tenant.CodeTenantMissing))

	assert.Equal(t, []string{
		tenant.OutcomeResolved, tenant.OutcomeResolved, tenant.OutcomeNotFound,
		tenant.OutcomeSuspended, tenant.OutcomeNotFound,
	}, obs.outcomes)
}

func TestResolver_UnknownSubdomainsAlwaysNotFound(t *testing.T) {
	r, _ := newTestResolver(nil)
	for _, sub := range []string{"x", "demo2", "de-mo", "123"} {
		_, err := r.Resolve(context.Background(), sub)
		assert.True(t, errx.HasCode(err, tenant.CodeTenantNotFound), sub)
	}
}

func TestResolver_DirectoryFailureIsInternal(t *testing.T) {
	r := tenant.NewResolver(failingDirectory{}, tenant.NewConnectionCache((&countingOpener{}).Open))
	_, err := r.Resolve(context.Background(), "demo")
	require.Error(t, err)
	assert.Equal(t, errx.TypeInternal, errx.From(err).Type)
}

func TestMiddleware(t *testing.T) {
	r, _ := newTestResolver(nil)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error { return errx.Render(c, err, false) },
	})
	app.Use(tenant.Middleware(r))
	app.Get("/ping", func(c *fiber.Ctx) error {
		scope, ok := tenant.ScopeFrom(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(scope.Tenant.ID.String())
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"unknown tenant", "ghost", http.StatusForbidden},
		{"suspended tenant", "old", http.StatusForbidden},
		{"resolved", "demo", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set(tenant.HeaderTenantID, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
