package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/fieldops360/auth-service/pkg/logx"
	"golang.org/x/sync/singleflight"
)

// ConnectionCache owns one Store per distinct Location for the lifetime of
// the process. Reads are lock-free; first-time creation per key runs once
// no matter how many requests race for it.
type ConnectionCache struct {
	open    Opener
	handles sync.Map // Location.Key() -> Store
	group   singleflight.Group
	size    atomic.Int64

	mu     sync.Mutex
	closed bool
}

func NewConnectionCache(open Opener) *ConnectionCache {
	return &ConnectionCache{open: open}
}

// GetOrCreate returns the cached handle for loc, opening it on first use.
// A failed open is not cached; the next call retries.
func (c *ConnectionCache) GetOrCreate(ctx context.Context, loc Location) (Store, error) {
	key := loc.Key()
	if h, ok := c.handles.Load(key); ok {
		return h.(Store), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if h, ok := c.handles.Load(key); ok {
			return h, nil
		}
		if c.isClosed() {
			return nil, ErrCacheClosed()
		}

		// Waiters share this result, so one caller's cancellation must
		// not fail the others.
		store, err := c.open(context.WithoutCancel(ctx), loc)
		if err != nil {
			logx.WithFields(logx.Fields{
				"store": key,
			}).WithError(err).Error("Failed to open tenant store")
			return nil, ErrStoreUnavailable(err).WithDetail("store", key)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			_ = store.Close()
			return nil, ErrCacheClosed()
		}
		c.handles.Store(key, store)
		c.size.Add(1)

		logx.WithField("store", key).Info("Tenant store connected")
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Store), nil
}

// Len is the number of open handles.
func (c *ConnectionCache) Len() int {
	return int(c.size.Load())
}

// Shutdown closes every cached handle and clears the cache. Later calls to
// GetOrCreate fail with ErrCacheClosed.
func (c *ConnectionCache) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	c.handles.Range(func(key, value any) bool {
		if err := value.(Store).Close(); err != nil {
			errs = append(errs, err)
			logx.WithField("store", key).WithError(err).Warn("Failed to close tenant store")
		}
		c.handles.Delete(key)
		c.size.Add(-1)
		return true
	})
	return errors.Join(errs...)
}

func (c *ConnectionCache) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
