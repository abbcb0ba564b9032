package asyncx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldops360/auth-service/pkg/logx"
)

// ─── Future ──────────────────────────────────────────────────────────────────

type result[T any] struct {
	value T
	err   error
}

// Future represents a value that will be available asynchronously.
// Create one with Run and retrieve its value with Await.
type Future[T any] struct {
	ch   chan result[T]
	res  *result[T]
	once sync.Once
}

// Run executes fn in a goroutine and returns a Future for its result.
// A panic in fn becomes the Future's error.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan result[T], 1)}
	go func() {
		var r result[T]
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("asyncx: panic: %v", p)
			}
			f.ch <- r
		}()
		r.value, r.err = fn()
	}()
	return f
}

// Await blocks until the Future completes. Later calls return the same
// result.
func (f *Future[T]) Await() (T, error) {
	f.once.Do(func() {
		r := <-f.ch
		f.res = &r
	})
	return f.res.value, f.res.err
}

// ─── Fire and forget ─────────────────────────────────────────────────────────

// DoCtx runs fn in a goroutine unless ctx is already done. Panics are
// logged and swallowed so background work cannot take the process down.
func DoCtx(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer func() {
			if p := recover(); p != nil {
				logx.WithContext(ctx).WithFields(logx.Fields{
					"task":  name,
					"panic": fmt.Sprint(p),
				}).Error("asyncx: background task panicked")
			}
		}()
		select {
		case <-ctx.Done():
			return
		default:
			fn(ctx)
		}
	}()
}

// ─── Retry ───────────────────────────────────────────────────────────────────

// RetryWithBackoff calls fn up to attempts times, doubling the delay after
// each failure. It stops early when ctx is done and returns the last error.
func RetryWithBackoff[T any](
	ctx context.Context,
	attempts int,
	initialDelay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	var (
		zero  T
		err   error
		val   T
		delay = initialDelay
	)
	if attempts < 1 {
		attempts = 1
	}
	for i := range attempts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}

		if i < attempts-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
				delay *= 2
			}
		}
	}
	return zero, err
}

// ─── Timeout ─────────────────────────────────────────────────────────────────

// WithTimeout runs fn with a deadline of d and returns
// context.DeadlineExceeded if fn does not finish in time.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- result[T]{v, err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
