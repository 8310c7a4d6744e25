// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about layout passes and document I/O.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The layout packages only see the interfaces; the Prometheus adapter lives
// in the promhooks subpackage and is registered by the CLI.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(promhooks.New(registry))
//	    // ... run application
//	}
//
// Strategies call hooks to emit events:
//
//	observability.Layout().OnLayoutStart("force", len(entities))
//	// ... run the pass ...
//	observability.Layout().OnLayoutComplete("force", duration, err)
//
// Layout hooks carry no context.Context: layout passes are synchronous and
// never block on I/O.
package observability

import (
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from layout strategies.
type LayoutHooks interface {
	// Pass events
	OnLayoutStart(algorithm string, entities int)
	OnLayoutComplete(algorithm string, duration time.Duration, err error)

	// OnIteration records one iteration of an iterative strategy (force
	// simulation steps, crossing-reduction sweeps).
	OnIteration(algorithm string, iteration int)

	// OnNonConvergence records a bounded loop that hit its cap and kept the
	// best result found. This is not an error.
	OnNonConvergence(algorithm, detail string)
}

// =============================================================================
// Document Hooks
// =============================================================================

// DocumentHooks receives events from graph document I/O in the CLI.
type DocumentHooks interface {
	// OnDocumentRead records a graph document being loaded.
	OnDocumentRead(format string, nodes, edges int, duration time.Duration, err error)

	// OnDocumentWrite records a laid-out document being written.
	OnDocumentWrite(format string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(string, int)                     {}
func (NoopLayoutHooks) OnLayoutComplete(string, time.Duration, error) {}
func (NoopLayoutHooks) OnIteration(string, int)                       {}
func (NoopLayoutHooks) OnNonConvergence(string, string)               {}

// NoopDocumentHooks is a no-op implementation of DocumentHooks.
type NoopDocumentHooks struct{}

func (NoopDocumentHooks) OnDocumentRead(string, int, int, time.Duration, error) {}
func (NoopDocumentHooks) OnDocumentWrite(string, time.Duration, error)          {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks   LayoutHooks   = NoopLayoutHooks{}
	documentHooks DocumentHooks = NoopDocumentHooks{}
	hooksMu       sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout pass.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetDocumentHooks registers custom document hooks.
// This should be called once at application startup before any document I/O.
func SetDocumentHooks(h DocumentHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		documentHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Document returns the registered document hooks.
func Document() DocumentHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return documentHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	documentHooks = NoopDocumentHooks{}
}
