package session

import (
	"sync"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/shaderview-go/common"
	"github.com/Carmen-Shannon/shaderview-go/preview"
	"github.com/Carmen-Shannon/shaderview-go/preview/geometry"
	"github.com/Carmen-Shannon/shaderview-go/preview/surface"
)

// fakeRuntime is a scriptable preview.Runtime for exercising the manager's
// lifecycle, queueing, retry, and fencing behavior without a GPU.
type fakeRuntime struct {
	mu         sync.Mutex
	events     chan preview.Event
	eventsOnce sync.Once
	tornDown   bool

	updates [][2]string
	results []chan error

	// autoResult, when set, resolves every update immediately.
	autoResult error
	autoSet    bool

	captureData []byte
	captureErr  error
}

var _ preview.Runtime = &fakeRuntime{}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{events: make(chan preview.Event, 16)}
}

func (f *fakeRuntime) Initialize(surface.Surface) error { return nil }

func (f *fakeRuntime) UpdateShaders(vertexSource, fragmentSource string) <-chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan error, 1)
	if f.tornDown {
		ch <- preview.ErrTornDown
		return ch
	}
	f.updates = append(f.updates, [2]string{vertexSource, fragmentSource})
	f.results = append(f.results, ch)
	if f.autoSet {
		ch <- f.autoResult
	}
	return ch
}

func (f *fakeRuntime) SetUniform(string, common.UniformValue) {}
func (f *fakeRuntime) SetGeometry(geometry.Type)              {}
func (f *fakeRuntime) SetPointer(float32, float32)            {}

func (f *fakeRuntime) CaptureFrame() ([]byte, error) {
	return f.captureData, f.captureErr
}

func (f *fakeRuntime) Events() <-chan preview.Event { return f.events }

func (f *fakeRuntime) Teardown() {
	f.mu.Lock()
	f.tornDown = true
	f.mu.Unlock()
	f.eventsOnce.Do(func() { close(f.events) })
}

func (f *fakeRuntime) emitReady() {
	f.events <- preview.Event{Type: preview.EventReady}
}

func (f *fakeRuntime) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeRuntime) lastUpdate() [2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return [2]string{}
	}
	return f.updates[len(f.updates)-1]
}

func (f *fakeRuntime) isTornDown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tornDown
}

// fakeSurface satisfies surface.Surface without a platform window.
type fakeSurface struct{ name string }

var _ surface.Surface = &fakeSurface{}

func (s *fakeSurface) SetUpdateCallback(func())                  {}
func (s *fakeSurface) SetResizeCallback(func(int, int))          {}
func (s *fakeSurface) SetPointerCallback(func(float32, float32)) {}
func (s *fakeSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return nil
}
func (s *fakeSurface) IsRunning() bool  { return true }
func (s *fakeSurface) Close() error     { return nil }
func (s *fakeSurface) ProcessMessages() {}
func (s *fakeSurface) Width() int       { return 640 }
func (s *fakeSurface) Height() int      { return 480 }

// eventRecorder collects host events in arrival order.
type eventRecorder struct {
	mu     sync.Mutex
	events []HostEvent
}

func (r *eventRecorder) record(ev HostEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count(eventType HostEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// runtimeFeed hands out fake runtimes in creation order.
type runtimeFeed struct {
	mu       sync.Mutex
	runtimes []*fakeRuntime
}

func (f *runtimeFeed) factory() preview.Runtime {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt := newFakeRuntime()
	f.runtimes = append(f.runtimes, rt)
	return rt
}

func (f *runtimeFeed) get(i int) *fakeRuntime {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.runtimes) {
		return nil
	}
	return f.runtimes[i]
}

func (f *runtimeFeed) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runtimes)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestAcquireLifecycle(t *testing.T) {
	feed := &runtimeFeed{}
	m := NewManager(WithRuntimeFactory(feed.factory))
	surf := &fakeSurface{name: "a"}
	const target = Target("panel-1")

	if got := m.State(target); got != StateAbsent {
		t.Fatalf("State before acquire = %v, want absent", got)
	}

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if got := m.State(target); got != StateInitializing {
		t.Fatalf("State after acquire = %v, want initializing", got)
	}

	feed.get(0).emitReady()
	waitFor(t, "ready state", func() bool { return m.State(target) == StateReady })

	// Same pairing is reused untouched.
	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("re-Acquire() error: %v", err)
	}
	if feed.created() != 1 {
		t.Errorf("runtimes created = %d, want 1", feed.created())
	}

	m.Release(target)
	if got := m.State(target); got != StateAbsent {
		t.Errorf("State after release = %v, want absent", got)
	}
	if !feed.get(0).isTornDown() {
		t.Error("released runtime was not torn down")
	}
}

func TestSurfaceOwnershipIsExclusive(t *testing.T) {
	feed := &runtimeFeed{}
	m := NewManager(WithRuntimeFactory(feed.factory))
	surf := &fakeSurface{name: "shared"}

	if err := m.Acquire(Target("first"), surf); err != nil {
		t.Fatalf("Acquire(first) error: %v", err)
	}
	if err := m.Acquire(Target("second"), surf); err != nil {
		t.Fatalf("Acquire(second) error: %v", err)
	}

	// The surface moved, so the first target's runtime is gone.
	if got := m.State(Target("first")); got != StateAbsent {
		t.Errorf("first target state = %v, want absent", got)
	}
	if !feed.get(0).isTornDown() {
		t.Error("first runtime kept the surface it lost")
	}
	if got := m.State(Target("second")); got != StateInitializing {
		t.Errorf("second target state = %v, want initializing", got)
	}
}

func TestForceRecreateReplacesRuntime(t *testing.T) {
	feed := &runtimeFeed{}
	m := NewManager(WithRuntimeFactory(feed.factory))
	surf := &fakeSurface{}
	const target = Target("panel")

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	feed.get(0).emitReady()
	waitFor(t, "ready state", func() bool { return m.State(target) == StateReady })

	if err := m.ForceRecreate(target, surf); err != nil {
		t.Fatalf("ForceRecreate() error: %v", err)
	}
	if !feed.get(0).isTornDown() {
		t.Error("old runtime was not torn down")
	}
	if feed.created() != 2 {
		t.Fatalf("runtimes created = %d, want 2", feed.created())
	}
	if got := m.State(target); got != StateInitializing {
		t.Errorf("state after recreate = %v, want initializing", got)
	}
}

func TestPreReadyUpdatesQueueLatestWins(t *testing.T) {
	feed := &runtimeFeed{}
	m := NewManager(WithRuntimeFactory(feed.factory))
	surf := &fakeSurface{}
	const target = Target("panel")

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	// Neither delivery happens yet; only the newest survives the queue.
	m.UpdateShaders(target, "v1", "f1")
	m.UpdateShaders(target, "v2", "f2")
	if got := feed.get(0).updateCount(); got != 0 {
		t.Fatalf("updates delivered before ready = %d, want 0", got)
	}

	feed.get(0).emitReady()
	waitFor(t, "queued update replay", func() bool { return feed.get(0).updateCount() == 1 })

	if got := feed.get(0).lastUpdate(); got != [2]string{"v2", "f2"} {
		t.Errorf("replayed update = %v, want the newest pair", got)
	}
}

func TestDeliveryRetriesThenFails(t *testing.T) {
	feed := &runtimeFeed{}
	recorder := &eventRecorder{}
	m := NewManager(
		WithRuntimeFactory(feed.factory),
		WithListener(recorder.record),
		WithRetryLimit(3),
		WithRetryBackoff(10*time.Millisecond),
	)
	surf := &fakeSurface{}
	const target = Target("panel")

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	rt := feed.get(0)
	rt.mu.Lock()
	rt.autoSet = true
	rt.autoResult = preview.ErrNotReady
	rt.mu.Unlock()

	rt.emitReady()
	waitFor(t, "ready state", func() bool { return m.State(target) == StateReady })

	m.UpdateShaders(target, "v", "f")

	// Three attempts, then exactly one terminal failure event.
	waitFor(t, "retry exhaustion", func() bool { return recorder.count(HostDeliveryFailed) > 0 })
	if got := rt.updateCount(); got != 3 {
		t.Errorf("delivery attempts = %d, want 3", got)
	}

	// No further attempts or duplicate failure events show up later.
	time.Sleep(50 * time.Millisecond)
	if got := recorder.count(HostDeliveryFailed); got != 1 {
		t.Errorf("deliveryFailed events = %d, want exactly 1", got)
	}
	if got := rt.updateCount(); got != 3 {
		t.Errorf("delivery attempts after failure = %d, want 3", got)
	}
	if got := m.State(target); got != StateError {
		t.Errorf("state after delivery failure = %v, want error", got)
	}
}

func TestStaleCompletionsAreFenced(t *testing.T) {
	feed := &runtimeFeed{}
	recorder := &eventRecorder{}
	m := NewManager(
		WithRuntimeFactory(feed.factory),
		WithListener(recorder.record),
		WithRetryLimit(1),
		WithRetryBackoff(time.Millisecond),
	)
	surf := &fakeSurface{}
	const target = Target("panel")

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	first := feed.get(0)
	first.emitReady()
	waitFor(t, "ready state", func() bool { return m.State(target) == StateReady })

	// Delivery hangs (no result scripted), then the runtime is replaced.
	m.UpdateShaders(target, "v", "f")
	waitFor(t, "in-flight update", func() bool { return first.updateCount() == 1 })

	if err := m.ForceRecreate(target, surf); err != nil {
		t.Fatalf("ForceRecreate() error: %v", err)
	}
	second := feed.get(1)
	second.emitReady()
	waitFor(t, "second ready", func() bool { return m.State(target) == StateReady })

	// The stale delivery now completes with a would-be-terminal failure;
	// the fence discards it, so the live session is untouched.
	first.mu.Lock()
	first.results[0] <- preview.ErrNotReady
	first.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	if got := recorder.count(HostDeliveryFailed); got != 0 {
		t.Errorf("deliveryFailed events from a stale session = %d, want 0", got)
	}
	if got := m.State(target); got != StateReady {
		t.Errorf("state after stale completion = %v, want ready", got)
	}
}

func TestListenerReceivesRuntimeEvents(t *testing.T) {
	feed := &runtimeFeed{}
	recorder := &eventRecorder{}
	m := NewManager(WithRuntimeFactory(feed.factory), WithListener(recorder.record))
	surf := &fakeSurface{}
	const target = Target("panel")

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	rt := feed.get(0)
	rt.emitReady()
	rt.events <- preview.Event{Type: preview.EventError, Message: "fragment shader compile error: oops"}
	rt.events <- preview.Event{Type: preview.EventClearError}

	waitFor(t, "all events", func() bool {
		return recorder.count(HostReady) == 1 &&
			recorder.count(HostError) == 1 &&
			recorder.count(HostClearError) == 1
	})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	for _, ev := range recorder.events {
		if ev.Target != target {
			t.Errorf("event target = %q, want %q", ev.Target, target)
		}
		if ev.Type == HostError && ev.Message == "" {
			t.Error("error event lost its diagnostic")
		}
	}
}

func TestCaptureFrameRouting(t *testing.T) {
	feed := &runtimeFeed{}
	m := NewManager(WithRuntimeFactory(feed.factory))
	surf := &fakeSurface{}
	const target = Target("panel")

	if _, err := m.CaptureFrame(target); err == nil {
		t.Fatal("CaptureFrame() on an absent target succeeded")
	}

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	rt := feed.get(0)
	rt.captureData = []byte("png-bytes")

	data, err := m.CaptureFrame(target)
	if err != nil {
		t.Fatalf("CaptureFrame() error: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("CaptureFrame() = %q, want the runtime's bytes", data)
	}
}

func TestReleaseAll(t *testing.T) {
	feed := &runtimeFeed{}
	m := NewManager(WithRuntimeFactory(feed.factory))

	targets := []Target{"a", "b", "c"}
	for _, target := range targets {
		if err := m.Acquire(target, &fakeSurface{name: string(target)}); err != nil {
			t.Fatalf("Acquire(%q) error: %v", target, err)
		}
	}

	m.ReleaseAll()
	for i, target := range targets {
		if got := m.State(target); got != StateAbsent {
			t.Errorf("State(%q) = %v, want absent", target, got)
		}
		if !feed.get(i).isTornDown() {
			t.Errorf("runtime %d not torn down", i)
		}
	}
}

func TestUpdateErrorStatesFollowEvents(t *testing.T) {
	feed := &runtimeFeed{}
	m := NewManager(WithRuntimeFactory(feed.factory))
	surf := &fakeSurface{}
	const target = Target("panel")

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	rt := feed.get(0)
	rt.emitReady()
	waitFor(t, "ready state", func() bool { return m.State(target) == StateReady })

	rt.events <- preview.Event{Type: preview.EventError, Message: "compile failed"}
	waitFor(t, "error state", func() bool { return m.State(target) == StateError })

	rt.events <- preview.Event{Type: preview.EventClearError}
	waitFor(t, "recovered state", func() bool { return m.State(target) == StateReady })
}

func TestTornDownUpdateIsDiscarded(t *testing.T) {
	feed := &runtimeFeed{}
	recorder := &eventRecorder{}
	m := NewManager(WithRuntimeFactory(feed.factory), WithListener(recorder.record))
	surf := &fakeSurface{}
	const target = Target("panel")

	if err := m.Acquire(target, surf); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	rt := feed.get(0)
	rt.emitReady()
	waitFor(t, "ready state", func() bool { return m.State(target) == StateReady })

	m.UpdateShaders(target, "v", "f")
	waitFor(t, "in-flight update", func() bool { return rt.updateCount() == 1 })

	m.Release(target)

	// The pending delivery resolves as torn down; nothing surfaces.
	rt.mu.Lock()
	select {
	case rt.results[0] <- preview.ErrTornDown:
	default:
	}
	rt.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	if got := recorder.count(HostDeliveryFailed); got != 0 {
		t.Errorf("deliveryFailed after release = %d, want 0", got)
	}
}
