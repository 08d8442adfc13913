package watch

import "time"

// WatcherBuilderOption is a functional option for configuring a fileWatcher.
// Use the With* functions to create options.
type WatcherBuilderOption func(w *fileWatcher)

// WithDebounce sets how long after the last change event the sources are
// re-read and submitted. The default is 100 milliseconds.
//
// Parameters:
//   - debounce: quiet period before a reload; values <= 0 are ignored
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithDebounce(debounce time.Duration) WatcherBuilderOption {
	return func(w *fileWatcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}
