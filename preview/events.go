package preview

import (
	"github.com/Carmen-Shannon/shaderview-go/preview/profiler"
)

// EventType identifies the kind of runtime event delivered on the Events channel.
type EventType int

const (
	// EventReady signals that the GPU context has been acquired and the
	// runtime is accepting operations. Emitted exactly once per runtime.
	EventReady EventType = iota

	// EventError carries a compile, link, or context diagnostic. An error
	// event replaces any previously displayed error.
	EventError

	// EventClearError signals that the most recent update succeeded and any
	// displayed error should be dismissed.
	EventClearError

	// EventStats carries the per-interval frame statistics.
	EventStats
)

// String returns a human-readable name for the event type.
func (t EventType) String() string {
	switch t {
	case EventReady:
		return "ready"
	case EventError:
		return "error"
	case EventClearError:
		return "clearError"
	case EventStats:
		return "stats"
	default:
		return "unknown"
	}
}

// Event is a single asynchronous notification from the runtime to its host.
// Events cross the runtime's message boundary in order; delivery is best
// effort — if the host falls behind and the channel fills, events are dropped
// with a warning rather than stalling the render loop.
type Event struct {
	// Type identifies the event kind.
	Type EventType

	// Message is the diagnostic text for EventError; empty otherwise.
	Message string

	// Stats is the frame statistics payload for EventStats; zero otherwise.
	Stats profiler.Stats
}
