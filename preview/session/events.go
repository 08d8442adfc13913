package session

import "github.com/Carmen-Shannon/shaderview-go/preview/profiler"

// HostEventType identifies the kind of notification delivered to the host
// listener.
type HostEventType int

const (
	// HostReady signals a target's runtime acquired its GPU context and is
	// accepting operations.
	HostReady HostEventType = iota

	// HostError carries a compile, link, or context diagnostic for a target.
	// Replaces any prior error display for that target.
	HostError

	// HostClearError signals a target's most recent update succeeded and any
	// displayed error should be dismissed.
	HostClearError

	// HostStats carries a target's per-interval frame statistics.
	HostStats

	// HostDeliveryFailed signals a shader update could not be delivered to a
	// target's runtime after the configured retries. Terminal for that
	// update; emitted exactly once per exhausted delivery.
	HostDeliveryFailed
)

// String returns a human-readable name for the event type.
func (t HostEventType) String() string {
	switch t {
	case HostReady:
		return "ready"
	case HostError:
		return "error"
	case HostClearError:
		return "clearError"
	case HostStats:
		return "stats"
	case HostDeliveryFailed:
		return "deliveryFailed"
	default:
		return "unknown"
	}
}

// HostEvent is one notification from the session manager to the host,
// delivered on the listener callback in emission order.
type HostEvent struct {
	// Target is the logical target the event concerns.
	Target Target

	// Type identifies the event kind.
	Type HostEventType

	// Message is the diagnostic text for HostError and HostDeliveryFailed;
	// empty otherwise.
	Message string

	// Stats is the frame statistics payload for HostStats; zero otherwise.
	Stats profiler.Stats
}
