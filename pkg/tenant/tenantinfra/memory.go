package tenantinfra

import (
	"context"
	"sync"

	"github.com/fieldops360/auth-service/pkg/tenant"
)

// MemoryDirectory is a fixed set of tenants keyed by subdomain.
type MemoryDirectory struct {
	mu      sync.RWMutex
	tenants map[string]tenant.Tenant
}

func NewMemoryDirectory(tenants ...tenant.Tenant) *MemoryDirectory {
	d := &MemoryDirectory{tenants: make(map[string]tenant.Tenant, len(tenants))}
	for _, t := range tenants {
		d.Put(t)
	}
	return d
}

func (d *MemoryDirectory) Put(t tenant.Tenant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tenants[tenant.NormalizeSubdomain(t.Subdomain)] = t
}

func (d *MemoryDirectory) FindBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tenants[tenant.NormalizeSubdomain(subdomain)]
	if !ok {
		return nil, tenant.ErrTenantNotFound(subdomain)
	}
	return &t, nil
}
