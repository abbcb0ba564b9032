package tenantinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/redis/go-redis/v9"
)

// RedisCachedDirectory is a read-through cache in front of another
// Directory. Redis failures degrade to the inner directory. Only active
// tenants are cached, so a suspension is seen by the next lookup after the
// cached entry expires; callers bound that window with ttl. Misses are not
// cached so a newly provisioned tenant is visible at once.
type RedisCachedDirectory struct {
	inner  tenant.Directory
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCachedDirectory(inner tenant.Directory, client redis.UniversalClient, ttl time.Duration) *RedisCachedDirectory {
	return &RedisCachedDirectory{inner: inner, client: client, ttl: ttl}
}

var _ tenant.Directory = (*RedisCachedDirectory)(nil)

func (d *RedisCachedDirectory) FindBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	log := logx.WithField("subdomain", subdomain)

	raw, err := d.client.Get(ctx, d.cacheKey(subdomain)).Bytes()
	switch {
	case err == nil:
		var t tenant.Tenant
		if jsonErr := json.Unmarshal(raw, &t); jsonErr == nil && t.Active {
			return &t, nil
		}
		log.Warn("Discarding unusable cached tenant")
		if err := d.Invalidate(ctx, subdomain); err != nil {
			log.WithError(err).Warn("Failed to drop cached tenant")
		}
	case errors.Is(err, redis.Nil):
		// miss
	default:
		log.WithError(err).Warn("Tenant cache unavailable")
	}

	t, err := d.inner.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return t, nil
	}

	if data, err := json.Marshal(t); err == nil {
		if err := d.client.Set(ctx, d.cacheKey(subdomain), data, d.ttl).Err(); err != nil {
			log.WithError(err).Warn("Failed to cache tenant")
		}
	}
	return t, nil
}

// Invalidate drops the cached entry for subdomain.
func (d *RedisCachedDirectory) Invalidate(ctx context.Context, subdomain string) error {
	return d.client.Del(ctx, d.cacheKey(subdomain)).Err()
}

func (d *RedisCachedDirectory) cacheKey(subdomain string) string {
	return fmt.Sprintf("tenant:directory:%s", subdomain)
}
