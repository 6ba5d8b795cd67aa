// Package xcontext provides helpers for handing work across context
// boundaries.
package xcontext

import (
	"context"
	"time"
)

// DetachWithTimeout returns a context that keeps the values of ctx but not
// its cancellation, bounded by timeout. Use it for work that must outlive
// the request that started it.
func DetachWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	return context.WithTimeout(detached, timeout)
}
