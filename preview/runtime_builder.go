package preview

import "time"

// RuntimeBuilderOption is a functional option for configuring a previewRuntime.
// Use the With* functions to create options.
type RuntimeBuilderOption func(r *previewRuntime)

// WithBackend substitutes the GPU backend. Intended for tests; the default is
// the WebGPU backend.
//
// Parameters:
//   - backend: the backend implementation to drive
//
// Returns:
//   - RuntimeBuilderOption: option function to apply
func WithBackend(backend Backend) RuntimeBuilderOption {
	return func(r *previewRuntime) {
		r.backend = backend
	}
}

// WithPresentMode sets the surface presentation mode.
//
// Parameters:
//   - mode: PresentModeVSync (default) or PresentModeUncapped
//
// Returns:
//   - RuntimeBuilderOption: option function to apply
func WithPresentMode(mode PresentMode) RuntimeBuilderOption {
	return func(r *previewRuntime) {
		r.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count.
//
// Parameters:
//   - samples: MSAAOff or MSAA4x (default)
//
// Returns:
//   - RuntimeBuilderOption: option function to apply
func WithMSAA(samples MSAASampleCount) RuntimeBuilderOption {
	return func(r *previewRuntime) {
		r.msaa = samples
	}
}

// WithFrameLimit caps the render loop at the given frame rate. Zero or
// negative leaves the loop uncapped (presentation mode still applies).
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - RuntimeBuilderOption: option function to apply
func WithFrameLimit(fps int) RuntimeBuilderOption {
	return func(r *previewRuntime) {
		if fps > 0 {
			r.frameLimit = time.Second / time.Duration(fps)
		}
	}
}

// WithStatsInterval sets how often frame statistics events are emitted.
// The default is one second.
//
// Parameters:
//   - interval: wall-clock time between EventStats emissions
//
// Returns:
//   - RuntimeBuilderOption: option function to apply
func WithStatsInterval(interval time.Duration) RuntimeBuilderOption {
	return func(r *previewRuntime) {
		r.statsInterval = interval
	}
}

// WithEventBufferSize sets the Events channel capacity. Events are dropped
// (with a warning) when the host falls this far behind.
//
// Parameters:
//   - size: channel capacity; values < 1 are ignored
//
// Returns:
//   - RuntimeBuilderOption: option function to apply
func WithEventBufferSize(size int) RuntimeBuilderOption {
	return func(r *previewRuntime) {
		if size >= 1 {
			r.eventBuffer = size
		}
	}
}

// WithMemoryLogging turns on heap/GC debug logging alongside frame stats.
//
// Returns:
//   - RuntimeBuilderOption: option function to apply
func WithMemoryLogging() RuntimeBuilderOption {
	return func(r *previewRuntime) {
		r.logMemory = true
	}
}
