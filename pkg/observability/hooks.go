// Package observability provides hooks for metrics, tracing, and progress
// reporting.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about batch execution, individual record
// conversions and cache lookups.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetBatchHooks(&myBatchHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Items().OnItemStart(ctx, key)
//	// ... convert ...
//	observability.Items().OnItemComplete(ctx, key, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events for whole batch runs.
type BatchHooks interface {
	OnBatchStart(ctx context.Context, runID, strategy string, total int)
	OnBatchComplete(ctx context.Context, runID string, converted, failed int, duration time.Duration, err error)
}

// =============================================================================
// Item Hooks
// =============================================================================

// ItemHooks receives events for individual record conversions.
// Implementations must be safe for concurrent use: the pool strategy emits
// events from several goroutines.
type ItemHooks interface {
	OnItemStart(ctx context.Context, key string)
	OnItemComplete(ctx context.Context, key string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, backend string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, backend string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, backend string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, string, string, int) {}
func (NoopBatchHooks) OnBatchComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopItemHooks is a no-op implementation of ItemHooks.
type NoopItemHooks struct{}

func (NoopItemHooks) OnItemStart(context.Context, string)                           {}
func (NoopItemHooks) OnItemComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Fan-out
// =============================================================================

// MultiItemHooks forwards item events to every hook in order.
type MultiItemHooks []ItemHooks

func (m MultiItemHooks) OnItemStart(ctx context.Context, key string) {
	for _, h := range m {
		h.OnItemStart(ctx, key)
	}
}

func (m MultiItemHooks) OnItemComplete(ctx context.Context, key string, d time.Duration, err error) {
	for _, h := range m {
		h.OnItemComplete(ctx, key, d, err)
	}
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	batchHooks BatchHooks = NoopBatchHooks{}
	itemHooks  ItemHooks  = NoopItemHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetBatchHooks registers custom batch hooks.
// This should be called once at application startup.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// SetItemHooks registers custom item hooks.
func SetItemHooks(h ItemHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		itemHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Batch returns the registered batch hooks.
func Batch() BatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return batchHooks
}

// Items returns the registered item hooks.
func Items() ItemHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return itemHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	batchHooks = NoopBatchHooks{}
	itemHooks = NoopItemHooks{}
	cacheHooks = NoopCacheHooks{}
}
