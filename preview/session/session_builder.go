package session

import (
	"time"

	"github.com/Carmen-Shannon/shaderview-go/preview"
)

// ManagerBuilderOption is a functional option for configuring a manager.
// Use the With* functions to create options.
type ManagerBuilderOption func(m *manager)

// WithRetryLimit sets how many delivery attempts a shader update gets before
// a HostDeliveryFailed event is emitted. The default is 3.
//
// Parameters:
//   - limit: total attempts; values < 1 are ignored
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithRetryLimit(limit int) ManagerBuilderOption {
	return func(m *manager) {
		if limit >= 1 {
			m.retryLimit = limit
		}
	}
}

// WithRetryBackoff sets the delay between shader update delivery attempts.
// The default is one second.
//
// Parameters:
//   - backoff: delay between attempts
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithRetryBackoff(backoff time.Duration) ManagerBuilderOption {
	return func(m *manager) {
		if backoff > 0 {
			m.retryBackoff = backoff
		}
	}
}

// WithListener sets the host callback that receives all session events.
// Callbacks are serialized and delivered in emission order.
//
// Parameters:
//   - listener: function receiving each HostEvent
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithListener(listener func(HostEvent)) ManagerBuilderOption {
	return func(m *manager) {
		m.listener = listener
	}
}

// WithRuntimeFactory substitutes how runtimes are constructed. Intended for
// tests and for hosts that need custom runtime options.
//
// Parameters:
//   - factory: function returning a fresh, uninitialized runtime
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithRuntimeFactory(factory func() preview.Runtime) ManagerBuilderOption {
	return func(m *manager) {
		if factory != nil {
			m.runtimeFactory = factory
		}
	}
}
