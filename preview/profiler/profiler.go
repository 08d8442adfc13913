// Package profiler accumulates per-frame timing for the preview runtime and
// produces frame-rate statistics at a fixed interval (1 Hz by default).
package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/shaderview-go/common"
)

// Stats is one interval's worth of frame statistics.
type Stats struct {
	// FPS is the number of frames completed during the interval, per second.
	FPS float64

	// RenderTimeMs is the average CPU time spent per frame, in milliseconds.
	RenderTimeMs float64
}

// Profiler tracks frame counts and cumulative render time between interval
// rollovers. Not safe for concurrent use; the render loop owns it.
type Profiler struct {
	frameCount     int
	renderTime     time.Duration
	lastTime       time.Time
	updateInterval time.Duration

	memStats       runtime.MemStats
	lastTotalAlloc uint64
	logMemory      bool
}

// NewProfiler creates a Profiler with the given stats interval.
// Values <= 0 default to 1 second.
//
// Parameters:
//   - interval: wall-clock time between Stats emissions
//
// Returns:
//   - *Profiler: the newly created profiler
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// EnableMemoryLogging turns on heap/GC debug logging on each interval rollover.
func (p *Profiler) EnableMemoryLogging() {
	p.logMemory = true
}

// Tick records one completed frame and its CPU render time. When the update
// interval has elapsed, the accumulated counters are converted to Stats,
// reset, and returned.
//
// Parameters:
//   - renderTime: CPU time the frame took to encode and submit
//
// Returns:
//   - Stats: the interval's statistics (zero-valued unless the second return is true)
//   - bool: true if the interval rolled over and Stats is valid
func (p *Profiler) Tick(renderTime time.Duration) (Stats, bool) {
	p.frameCount++
	p.renderTime += renderTime

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	stats := Stats{
		FPS: float64(p.frameCount) / elapsed.Seconds(),
	}
	if p.frameCount > 0 {
		stats.RenderTimeMs = float64(p.renderTime.Microseconds()) / float64(p.frameCount) / 1000
	}

	if p.logMemory {
		runtime.ReadMemStats(&p.memStats)
		// Alloc: live heap bytes. TotalAlloc: cumulative (tracks churn).
		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		common.Logger().Debug("frame stats",
			slog.Float64("fps", stats.FPS),
			slog.Float64("render_ms", stats.RenderTimeMs),
			slog.Float64("heap_mb", float64(p.memStats.Alloc)/1024/1024),
			slog.Float64("alloc_rate_mb_s", float64(allocDelta)/1024/1024/elapsed.Seconds()),
			slog.Uint64("gc_count", uint64(p.memStats.NumGC)))
		p.lastTotalAlloc = p.memStats.TotalAlloc
	}

	p.frameCount = 0
	p.renderTime = 0
	p.lastTime = currentTime
	return stats, true
}
