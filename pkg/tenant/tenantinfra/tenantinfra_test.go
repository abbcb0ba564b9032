package tenantinfra_test

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/fieldops360/auth-service/pkg/tenant/tenantinfra"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	tenant.Directory
	calls atomic.Int32
}

func (d *countingDirectory) FindBySubdomain(ctx context.Context, sub string) (*tenant.Tenant, error) {
	d.calls.Add(1)
	return d.Directory.FindBySubdomain(ctx, sub)
}

func TestMemoryDirectory(t *testing.T) {
	dir := tenantinfra.NewMemoryDirectory(tenant.Tenant{ID: "1", Subdomain: "Demo", Active: true})

	got, err := dir.FindBySubdomain(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID.String())

	_, err = dir.FindBySubdomain(context.Background(), "other")
	assert.True(t, errx.HasCode(err, tenant.CodeTenantNotFound))
}

func TestRedisCachedDirectory_FallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	inner := &countingDirectory{Directory: tenantinfra.NewMemoryDirectory(
		tenant.Tenant{ID: "1", Subdomain: "demo", Active: true},
	)}
	dir := tenantinfra.NewRedisCachedDirectory(inner, client, time.Minute)

	got, err := dir.FindBySubdomain(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Subdomain)
	assert.EqualValues(t, 1, inner.calls.Load())

	_, err = dir.FindBySubdomain(context.Background(), "ghost")
	assert.True(t, errx.HasCode(err, tenant.CodeTenantNotFound))
}

// mapRedis keeps Get, Set and Del in a map; every other command panics.
type mapRedis struct {
	redis.UniversalClient
	mu   sync.Mutex
	data map[string]string
}

func newMapRedis() *mapRedis { return &mapRedis{data: map[string]string{}} }

func (r *mapRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *mapRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		r.data[key] = string(v)
	case string:
		r.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (r *mapRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.data[k]; ok {
			delete(r.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (r *mapRedis) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[key]
	return ok
}

func TestRedisCachedDirectory_CachesActiveTenants(t *testing.T) {
	client := newMapRedis()
	inner := &countingDirectory{Directory: tenantinfra.NewMemoryDirectory(
		tenant.Tenant{ID: "1", Subdomain: "demo", Active: true},
	)}
	dir := tenantinfra.NewRedisCachedDirectory(inner, client, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := dir.FindBySubdomain(context.Background(), "demo")
		require.NoError(t, err)
		assert.True(t, got.Active)
	}
	assert.EqualValues(t, 1, inner.calls.Load())
	assert.True(t, client.has("tenant:directory:demo"))
}

func TestRedisCachedDirectory_NeverCachesSuspendedTenants(t *testing.T) {
	client := newMapRedis()
	inner := &countingDirectory{Directory: tenantinfra.NewMemoryDirectory(
		tenant.Tenant{ID: "2", Subdomain: "old", Active: false},
	)}
	dir := tenantinfra.NewRedisCachedDirectory(inner, client, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := dir.FindBySubdomain(context.Background(), "old")
		require.NoError(t, err)
		assert.False(t, got.Active)
	}
	assert.EqualValues(t, 2, inner.calls.Load())
	assert.False(t, client.has("tenant:directory:old"))
}

func TestRedisCachedDirectory_DropsInactiveCachedEntry(t *testing.T) {
	client := newMapRedis()
	stale, err := json.Marshal(tenant.Tenant{ID: "3", Subdomain: "acme", Active: false})
	require.NoError(t, err)
	client.data["tenant:directory:acme"] = string(stale)

	inner := &countingDirectory{Directory: tenantinfra.NewMemoryDirectory(
		tenant.Tenant{ID: "3", Subdomain: "acme", Active: false},
	)}
	dir := tenantinfra.NewRedisCachedDirectory(inner, client, time.Minute)

	got, err := dir.FindBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.EqualValues(t, 1, inner.calls.Load())
	assert.False(t, client.has("tenant:directory:acme"))
}

func TestTenantDSN(t *testing.T) {
	loc := tenant.Location{Host: "db1", Port: 5433, Name: "tenant_demo"}

	cases := []struct {
		name     string
		password string
	}{
		{"plain", "secret"},
		{"empty", ""},
		{"space and quote", `p w'x\`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn := tenantinfra.TenantDSN(config.TenantDBConfig{User: "app", Password: tc.password}, loc)

			_, err := pq.NewConnector(dsn)
			require.NoError(t, err)

			u, err := url.Parse(dsn)
			require.NoError(t, err)
			assert.Equal(t, "/tenant_demo", u.Path)
			assert.Equal(t, "db1:5433", u.Host)
			assert.Equal(t, "app", u.User.Username())
			pw, _ := u.User.Password()
			assert.Equal(t, tc.password, pw)
			assert.Equal(t, "disable", u.Query().Get("sslmode"))
		})
	}
}

func TestTenantDSN_DistinctLocationsStayDistinct(t *testing.T) {
	cfg := config.TenantDBConfig{User: "postgres"}
	a := tenantinfra.TenantDSN(cfg, tenant.Location{Host: "db", Port: 5432, Name: "tenant_a"})
	b := tenantinfra.TenantDSN(cfg, tenant.Location{Host: "db", Port: 5432, Name: "tenant_b"})

	ua, err := url.Parse(a)
	require.NoError(t, err)
	ub, err := url.Parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ua.Path, ub.Path)
}
