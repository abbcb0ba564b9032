package tenant

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
)

// Location is where a tenant's isolated user store lives.
type Location struct {
	Host string `json:"host" db:"db_host"`
	Port int    `json:"port" db:"db_port"`
	Name string `json:"name" db:"db_name"`
}

// Key is the connection cache key. Tenants that share a physical store
// share a key and therefore a handle.
func (l Location) Key() string {
	return fmt.Sprintf("%s:%d/%s", l.Host, l.Port, l.Name)
}

// Tenant is a customer organization as recorded in the platform directory.
type Tenant struct {
	ID        kernel.TenantID `json:"id"`
	Subdomain string          `json:"subdomain"`
	Name      string          `json:"name"`
	Location  Location        `json:"location"`
	Active    bool            `json:"active"`
}

// Directory looks tenants up by their external identifier.
type Directory interface {
	// FindBySubdomain returns ErrTenantNotFound when no tenant matches.
	FindBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
}

// Store is a live handle to one tenant database.
type Store interface {
	Users() user.Repository
	Ping(ctx context.Context) error
	Close() error
}

// Opener connects to a store location.
type Opener func(ctx context.Context, loc Location) (Store, error)

// Scope is what a request operates on once its tenant is resolved.
type Scope struct {
	Tenant *Tenant
	Store  Store
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TENANT")

var (
	CodeTenantNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeForbidden, http.StatusForbidden, "Unknown tenant")
	CodeTenantSuspended  = ErrRegistry.Register("SUSPENDED", errx.TypeForbidden, http.StatusForbidden, "Tenant is suspended")
	CodeTenantMissing    = ErrRegistry.Register("MISSING", errx.TypeAuthorization, http.StatusUnauthorized, "Tenant header is required")
	CodeStoreUnavailable = ErrRegistry.Register("STORE_UNAVAILABLE", errx.TypeUnavailable, http.StatusServiceUnavailable, "Tenant store is unavailable")
	CodeCacheClosed      = ErrRegistry.Register("CACHE_CLOSED", errx.TypeUnavailable, http.StatusServiceUnavailable, "Service is shutting down")
)

func ErrTenantNotFound(subdomain string) *errx.Error {
	return ErrRegistry.New(CodeTenantNotFound).WithDetail("subdomain", subdomain)
}

func ErrTenantSuspended(subdomain string) *errx.Error {
	return ErrRegistry.New(CodeTenantSuspended).WithDetail("subdomain", subdomain)
}

func ErrTenantMissing() *errx.Error {
	return ErrRegistry.New(CodeTenantMissing)
}

func ErrStoreUnavailable(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStoreUnavailable, cause)
}

func ErrCacheClosed() *errx.Error {
	return ErrRegistry.New(CodeCacheClosed)
}
