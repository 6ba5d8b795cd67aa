package xcache

import (
	"context"
	"errors"

	"github.com/eko/gocache/lib/v4/store"
)

// ErrCacheNotConfigured is the cause reported by Get on the noop cache.
var ErrCacheNotConfigured = errors.New("cache not configured")

// noopCache satisfies Cache without storing anything. It stands in when no
// backend is configured so callers never have to branch on nil.
type noopCache[T any] struct{}

func NewNoop[T any]() Cache[T] {
	return noopCache[T]{}
}

// Get misses for every key.
func (noopCache[T]) Get(ctx context.Context, key any) (T, error) {
	var zero T
	return zero, store.NotFoundWithCause(ErrCacheNotConfigured)
}

func (noopCache[T]) Set(ctx context.Context, key any, object T, options ...Option) error {
	return nil
}

func (noopCache[T]) Delete(ctx context.Context, key any) error {
	return nil
}

func (noopCache[T]) Invalidate(ctx context.Context, options ...store.InvalidateOption) error {
	return nil
}

func (noopCache[T]) Clear(ctx context.Context) error {
	return nil
}

func (noopCache[T]) GetType() string {
	return "noop"
}
