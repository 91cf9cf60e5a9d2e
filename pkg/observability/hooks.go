// Package observability provides hooks for metrics, tracing, and logging.
//
// The conversion pipeline emits events through hook interfaces with no-op
// defaults; applications register real implementations at startup. This
// keeps the library free of observability backend dependencies and avoids
// import cycles, while letting the server wire Prometheus or OpenTelemetry
// without touching pipeline code.
//
// Register hooks once, before any conversion runs:
//
//	observability.SetConversionHooks(&myHooks{})
package observability

import (
	"context"
	"sync"
	"time"
)

// ConversionHooks receives events from the conversion pipeline stages.
type ConversionHooks interface {
	// Extraction events
	OnExtractStart(ctx context.Context, roots []string)
	OnExtractComplete(ctx context.Context, nodeCount, edgeCount int, duration time.Duration, err error)

	// Mapping events
	OnMapStart(ctx context.Context, ruleSet string, nodeCount int)
	OnMapComplete(ctx context.Context, ruleSet string, warningCount int, duration time.Duration, err error)

	// Serialization events (layout + document encoding)
	OnSerializeStart(ctx context.Context, nodeCount int)
	OnSerializeComplete(ctx context.Context, byteSize int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopConversionHooks is a no-op implementation of ConversionHooks.
type NoopConversionHooks struct{}

func (NoopConversionHooks) OnExtractStart(context.Context, []string) {}
func (NoopConversionHooks) OnExtractComplete(context.Context, int, int, time.Duration, error) {
}
func (NoopConversionHooks) OnMapStart(context.Context, string, int) {}
func (NoopConversionHooks) OnMapComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopConversionHooks) OnSerializeStart(context.Context, int)                          {}
func (NoopConversionHooks) OnSerializeComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	conversionHooks ConversionHooks = NoopConversionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetConversionHooks registers custom conversion hooks. Call once at
// application startup before any conversion runs.
func SetConversionHooks(h ConversionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		conversionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Call once at application
// startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Conversion returns the registered conversion hooks.
func Conversion() ConversionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return conversionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op defaults. Primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	conversionHooks = NoopConversionHooks{}
	cacheHooks = NoopCacheHooks{}
}
