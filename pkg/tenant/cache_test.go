package tenant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/iam/user/userinfra"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	user.Repository
	closed atomic.Bool
}

func (s *fakeStore) Users() user.Repository     { return s.Repository }
func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) Close() error {
	s.closed.Store(true)
	return nil
}

type countingOpener struct {
	calls atomic.Int32
	delay time.Duration
	fail  atomic.Bool
}

func (o *countingOpener) Open(ctx context.Context, loc tenant.Location) (tenant.Store, error) {
	o.calls.Add(1)
	if o.delay > 0 {
		time.Sleep(o.delay)
	}
	if o.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return &fakeStore{Repository: userinfra.NewMemoryUserRepository()}, nil
}

var (
	locA = tenant.Location{Host: "db1", Port: 5432, Name: "tenant_a"}
	locB = tenant.Location{Host: "db1", Port: 5432, Name: "tenant_b"}
)

func TestLocation_Key(t *testing.T) {
	assert.Equal(t, "db1:5432/tenant_a", locA.Key())
}

func TestConnectionCache_SameLocationSameHandle(t *testing.T) {
	opener := &countingOpener{}
	cache := tenant.NewConnectionCache(opener.Open)
	ctx := context.Background()

	first, err := cache.GetOrCreate(ctx, locA)
	require.NoError(t, err)
	second, err := cache.GetOrCreate(ctx, locA)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, opener.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestConnectionCache_DistinctLocationsDistinctHandles(t *testing.T) {
	opener := &countingOpener{}
	cache := tenant.NewConnectionCache(opener.Open)
	ctx := context.Background()

	a, err := cache.GetOrCreate(ctx, locA)
	require.NoError(t, err)
	b, err := cache.GetOrCreate(ctx, locB)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, cache.Len())
}

func TestConnectionCache_ConcurrentFirstUseOpensOnce(t *testing.T) {
	opener := &countingOpener{delay: 20 * time.Millisecond}
	cache := tenant.NewConnectionCache(opener.Open)

	const n = 50
	handles := make([]tenant.Store, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			h, err := cache.GetOrCreate(context.Background(), locA)
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, opener.calls.Load())
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}

func TestConnectionCache_FailureIsNotCached(t *testing.T) {
	opener := &countingOpener{}
	opener.fail.Store(true)
	cache := tenant.NewConnectionCache(opener.Open)
	ctx := context.Background()

	_, err := cache.GetOrCreate(ctx, locA)
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, tenant.CodeStoreUnavailable))
	assert.Equal(t, 0, cache.Len())

	opener.fail.Store(false)
	h, err := cache.GetOrCreate(ctx, locA)
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.EqualValues(t, 2, opener.calls.Load())
}

func TestConnectionCache_CancelledCallerDoesNotPoisonFlight(t *testing.T) {
	var cancelled atomic.Bool
	cache := tenant.NewConnectionCache(func(ctx context.Context, loc tenant.Location) (tenant.Store, error) {
		cancelled.Store(ctx.Err() != nil)
		return &fakeStore{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.GetOrCreate(ctx, locA)
	require.NoError(t, err)
	assert.False(t, cancelled.Load())
}

func TestConnectionCache_Shutdown(t *testing.T) {
	opener := &countingOpener{}
	cache := tenant.NewConnectionCache(opener.Open)
	ctx := context.Background()

	a, err := cache.GetOrCreate(ctx, locA)
	require.NoError(t, err)
	b, err := cache.GetOrCreate(ctx, locB)
	require.NoError(t, err)

	require.NoError(t, cache.Shutdown())
	assert.True(t, a.(*fakeStore).closed.Load())
	assert.True(t, b.(*fakeStore).closed.Load())
	assert.Equal(t, 0, cache.Len())

	_, err = cache.GetOrCreate(ctx, locA)
	assert.True(t, errx.HasCode(err, tenant.CodeCacheClosed))
	assert.NoError(t, cache.Shutdown(), "second shutdown is a no-op")
}
