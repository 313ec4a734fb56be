// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about graph documents, store operations and
// served HTTP requests.
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
//	    observability.SetGraphHooks(&myGraphHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	// ... load the graph ...
//	observability.Graph().OnLoad(stats, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphStats summarizes one saved or loaded graph document.
type GraphStats struct {
	Nodes       int
	Edges       int
	Annotations int
	Dropped     int // items skipped while loading
}

// GraphHooks receives events from the graph document codec.
type GraphHooks interface {
	// OnSave records a finished save.
	OnSave(stats GraphStats, duration time.Duration, err error)

	// OnLoad records a finished load.
	OnLoad(stats GraphStats, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document store operations.
type StoreHooks interface {
	// OnGet records a read. found is false for missing keys.
	OnGet(ctx context.Context, backend, key string, found bool, duration time.Duration)

	// OnPut records a write of size bytes.
	OnPut(ctx context.Context, backend, key string, size int, duration time.Duration, err error)

	// OnDelete records a removal.
	OnDelete(ctx context.Context, backend, key string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the document HTTP service.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnSave(GraphStats, time.Duration, error) {}
func (NoopGraphHooks) OnLoad(GraphStats, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnGet(context.Context, string, string, bool, time.Duration)       {}
func (NoopStoreHooks) OnPut(context.Context, string, string, int, time.Duration, error) {}
func (NoopStoreHooks) OnDelete(context.Context, string, string, error)                  {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks GraphHooks = NoopGraphHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any documents are processed.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
