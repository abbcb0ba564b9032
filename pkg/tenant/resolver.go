package tenant

import (
	"context"
	"strings"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
)

// Resolution outcomes reported to a ResolutionObserver.
const (
	OutcomeResolved    = "resolved"
	OutcomeNotFound    = "not_found"
	OutcomeSuspended   = "suspended"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// ResolutionObserver receives the outcome and latency of every resolution.
type ResolutionObserver interface {
	ObserveTenantResolution(outcome string, elapsed time.Duration)
}

// Resolver maps a subdomain to a Scope.
type Resolver struct {
	directory Directory
	cache     *ConnectionCache
	observer  ResolutionObserver
}

type ResolverOption func(*Resolver)

func WithObserver(o ResolutionObserver) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

func NewResolver(directory Directory, cache *ConnectionCache, opts ...ResolverOption) *Resolver {
	r := &Resolver{directory: directory, cache: cache}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fails with TENANT_MISSING for a blank subdomain, TENANT_NOT_FOUND
// when the directory has no match and TENANT_SUSPENDED for inactive
// tenants.
func (r *Resolver) Resolve(ctx context.Context, subdomain string) (*Scope, error) {
	start := time.Now()
	scope, err := r.resolve(ctx, NormalizeSubdomain(subdomain))
	if r.observer != nil {
		r.observer.ObserveTenantResolution(outcome(err), time.Since(start))
	}
	return scope, err
}

func (r *Resolver) resolve(ctx context.Context, subdomain string) (*Scope, error) {
	if subdomain == "" {
		return nil, ErrTenantMissing()
	}

	t, err := r.directory.FindBySubdomain(ctx, subdomain)
	if err != nil {
		if errx.HasCode(err, CodeTenantNotFound) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to look up tenant", errx.TypeInternal).
			WithDetail("subdomain", subdomain)
	}
	if !t.Active {
		return nil, ErrTenantSuspended(subdomain)
	}

	store, err := r.cache.GetOrCreate(ctx, t.Location)
	if err != nil {
		return nil, err
	}
	return &Scope{Tenant: t, Store: store}, nil
}

// NormalizeSubdomain trims and lowercases a tenant identifier.
func NormalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeResolved
	case errx.HasCode(err, CodeTenantNotFound), errx.HasCode(err, CodeTenantMissing):
		return OutcomeNotFound
	case errx.HasCode(err, CodeTenantSuspended):
		return OutcomeSuspended
	case errx.HasCode(err, CodeStoreUnavailable), errx.HasCode(err, CodeCacheClosed):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
