// Package session manages the lifecycle of preview runtimes across logical
// targets: at most one live runtime per target, exclusive surface ownership,
// pre-readiness queueing of shader updates, delivery retries, and fan-out of
// runtime events to a host listener. Session tokens fence every asynchronous
// completion so a recreated target never observes results from a runtime that
// has since been torn down.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/shaderview-go/common"
	"github.com/Carmen-Shannon/shaderview-go/preview"
	"github.com/Carmen-Shannon/shaderview-go/preview/geometry"
	"github.com/Carmen-Shannon/shaderview-go/preview/surface"
)

// Target identifies a logical preview destination. The mapping from target to
// runtime is the manager's core invariant: at most one live runtime per target.
type Target string

// State is a target's lifecycle state as the manager tracks it.
type State int

const (
	// StateAbsent means no runtime exists for the target.
	StateAbsent State = iota

	// StateInitializing means a runtime was created but has not yet signaled
	// readiness. Shader updates posted now are queued, latest wins.
	StateInitializing

	// StateReady means the runtime is accepting operations and drawing.
	StateReady

	// StateError means the runtime is showing a diagnostic (compile, link, or
	// context failure). Operations are still accepted.
	StateError

	// StateTornDown means the runtime was released. The entry is removed; the
	// state is only observable transiently.
	StateTornDown
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateTornDown:
		return "tornDown"
	default:
		return "unknown"
	}
}

// Manager owns preview runtimes keyed by logical target. All methods are safe
// for concurrent use.
type Manager interface {
	// Acquire ensures a live runtime exists for the target on the given
	// surface. An existing target/surface pairing is reused untouched; a
	// target moving to a new surface, or a surface moving to a new target,
	// tears the stale runtime down first.
	//
	// Parameters:
	//   - target: the logical target
	//   - surf: the surface the target renders into
	//
	// Returns:
	//   - error: if a fresh runtime could not be started
	Acquire(target Target, surf surface.Surface) error

	// ForceRecreate tears down the target's runtime (if any) and starts a
	// fresh one on the given surface. The recovery path for a lost GPU
	// context.
	//
	// Parameters:
	//   - target: the logical target
	//   - surf: the surface the target renders into
	//
	// Returns:
	//   - error: if the fresh runtime could not be started
	ForceRecreate(target Target, surf surface.Surface) error

	// Release tears down the target's runtime and removes the entry. No-op
	// for absent targets.
	Release(target Target)

	// ReleaseAll tears down every live runtime.
	ReleaseAll()

	// State reports the target's lifecycle state (StateAbsent when no
	// runtime exists).
	State(target Target) State

	// UpdateShaders delivers a shader source pair to the target's runtime.
	// Posted before readiness it is queued (latest wins) and replayed when
	// the runtime signals ready. Delivery failures are retried with backoff;
	// exhausting the retries emits a single HostDeliveryFailed event.
	// Outcomes (success, compile or link diagnostics) arrive as host events.
	UpdateShaders(target Target, vertexSource, fragmentSource string)

	// SetUniform forwards a user uniform to the target's runtime. Silently
	// ignored for absent targets.
	SetUniform(target Target, name string, value common.UniformValue)

	// SetGeometry forwards a geometry selection to the target's runtime.
	// Silently ignored for absent targets.
	SetGeometry(target Target, t geometry.Type)

	// SetPointer forwards a pointer position to the target's runtime, in
	// backing-store pixels with Y up from the bottom. Silently ignored for
	// absent targets.
	SetPointer(target Target, x, y float32)

	// CaptureFrame captures the target's most recent frame as PNG bytes.
	//
	// Parameters:
	//   - target: the logical target
	//
	// Returns:
	//   - []byte: the PNG-encoded frame
	//   - error: if the target is absent or the capture failed
	CaptureFrame(target Target) ([]byte, error)
}

// entry tracks one target's runtime. Guarded by the manager's mutex.
type entry struct {
	rt    preview.Runtime
	surf  surface.Surface
	state State

	// session is the entry's fence token. Asynchronous completions carry the
	// token they were issued under and are discarded when it no longer
	// matches, so a recreated target never sees a predecessor's results.
	session uint64

	// Latest-wins queue for updates posted before readiness.
	pendingVertex   string
	pendingFragment string
	hasPending      bool
}

// manager is the implementation of the Manager interface.
type manager struct {
	mu      sync.Mutex
	entries map[Target]*entry

	sessionCounter atomic.Uint64
	taskCounter    atomic.Int64

	retryLimit     int
	retryBackoff   time.Duration
	listener       func(HostEvent)
	runtimeFactory func() preview.Runtime

	// pool serializes listener callbacks off the manager's hot paths.
	// A single worker keeps host events in emission order.
	pool worker.DynamicWorkerPool
}

var _ Manager = &manager{}

// NewManager creates a new Manager with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the manager
//
// Returns:
//   - Manager: the configured manager
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &manager{
		entries:        make(map[Target]*entry),
		retryLimit:     3,
		retryBackoff:   1 * time.Second,
		runtimeFactory: func() preview.Runtime { return preview.NewRuntime() },
		pool:           worker.NewDynamicWorkerPool(1, 256, 1*time.Second),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *manager) Acquire(target Target, surf surface.Surface) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[target]; ok {
		if e.surf == surf {
			return nil
		}
		// Same target on a new surface: the old runtime is stale.
		m.releaseLocked(target, e)
	}

	// Exclusive surface ownership: a surface moving to a new target tears
	// down whichever runtime held it.
	for t, e := range m.entries {
		if e.surf == surf {
			m.releaseLocked(t, e)
		}
	}

	return m.createLocked(target, surf)
}

func (m *manager) ForceRecreate(target Target, surf surface.Surface) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[target]; ok {
		m.releaseLocked(target, e)
	}
	return m.createLocked(target, surf)
}

func (m *manager) Release(target Target) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[target]; ok {
		m.releaseLocked(target, e)
	}
}

func (m *manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for t, e := range m.entries {
		m.releaseLocked(t, e)
	}
}

func (m *manager) State(target Target) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[target]
	if !ok {
		return StateAbsent
	}
	return e.state
}

func (m *manager) UpdateShaders(target Target, vertexSource, fragmentSource string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[target]
	if !ok {
		common.Logger().Warn("updateShaders: no runtime for target", slog.String("target", string(target)))
		return
	}
	if e.state == StateInitializing {
		// Queue until readiness; only the newest pair survives.
		e.pendingVertex = vertexSource
		e.pendingFragment = fragmentSource
		e.hasPending = true
		return
	}
	m.dispatchLocked(target, e, vertexSource, fragmentSource, 1)
}

func (m *manager) SetUniform(target Target, name string, value common.UniformValue) {
	if rt := m.runtimeFor(target); rt != nil {
		rt.SetUniform(name, value)
	}
}

func (m *manager) SetGeometry(target Target, t geometry.Type) {
	if rt := m.runtimeFor(target); rt != nil {
		rt.SetGeometry(t)
	}
}

func (m *manager) SetPointer(target Target, x, y float32) {
	if rt := m.runtimeFor(target); rt != nil {
		rt.SetPointer(x, y)
	}
}

func (m *manager) CaptureFrame(target Target) ([]byte, error) {
	rt := m.runtimeFor(target)
	if rt == nil {
		return nil, fmt.Errorf("session: no runtime for target %q", target)
	}
	return rt.CaptureFrame()
}

// runtimeFor returns the target's runtime without holding the lock across
// the runtime call, or nil for absent targets.
func (m *manager) runtimeFor(target Target) preview.Runtime {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[target]
	if !ok {
		return nil
	}
	return e.rt
}

// createLocked starts a fresh runtime for the target. Caller holds the lock.
func (m *manager) createLocked(target Target, surf surface.Surface) error {
	e := &entry{
		rt:      m.runtimeFactory(),
		surf:    surf,
		state:   StateInitializing,
		session: m.sessionCounter.Add(1),
	}
	m.entries[target] = e

	go m.consumeEvents(target, e)

	if err := e.rt.Initialize(surf); err != nil {
		delete(m.entries, target)
		e.rt.Teardown()
		return fmt.Errorf("session: starting runtime for target %q: %w", target, err)
	}
	return nil
}

// releaseLocked tears the entry's runtime down and removes it. Caller holds
// the lock. Teardown closes the runtime's event channel, which ends the
// entry's consumer goroutine.
func (m *manager) releaseLocked(target Target, e *entry) {
	delete(m.entries, target)
	e.state = StateTornDown
	e.rt.Teardown()
}

// consumeEvents drains one runtime's event channel, updating the entry's
// state and forwarding to the host listener. Exits when the entry has been
// superseded or the channel closes at teardown.
func (m *manager) consumeEvents(target Target, e *entry) {
	for ev := range e.rt.Events() {
		m.mu.Lock()
		cur, ok := m.entries[target]
		if !ok || cur != e {
			m.mu.Unlock()
			return
		}
		switch ev.Type {
		case preview.EventReady:
			e.state = StateReady
			if e.hasPending {
				vs, fs := e.pendingVertex, e.pendingFragment
				e.hasPending = false
				e.pendingVertex, e.pendingFragment = "", ""
				m.dispatchLocked(target, e, vs, fs, 1)
			}
		case preview.EventError:
			e.state = StateError
		case preview.EventClearError:
			e.state = StateReady
		}
		m.mu.Unlock()

		m.emit(HostEvent{
			Target:  target,
			Type:    hostEventType(ev.Type),
			Message: ev.Message,
			Stats:   ev.Stats,
		})
	}
}

// dispatchLocked delivers one shader update attempt and chases its
// asynchronous outcome. Caller holds the lock. Every completion path
// re-checks the session fence before touching shared state.
func (m *manager) dispatchLocked(target Target, e *entry, vertexSource, fragmentSource string, attempt int) {
	token := e.session
	resultCh := e.rt.UpdateShaders(vertexSource, fragmentSource)

	go func() {
		err := <-resultCh

		m.mu.Lock()
		cur, ok := m.entries[target]
		if !ok || cur != e || e.session != token {
			m.mu.Unlock()
			return
		}

		switch {
		case err == nil:
			e.state = StateReady
			m.mu.Unlock()
		case errors.Is(err, preview.ErrSuperseded):
			// A newer update owns the outcome; nothing to report.
			m.mu.Unlock()
		case errors.Is(err, preview.ErrNotReady):
			if attempt >= m.retryLimit {
				e.state = StateError
				m.mu.Unlock()
				m.emit(HostEvent{
					Target:  target,
					Type:    HostDeliveryFailed,
					Message: fmt.Sprintf("shader update not delivered after %d attempts", m.retryLimit),
				})
				return
			}
			m.mu.Unlock()
			time.AfterFunc(m.retryBackoff, func() {
				m.mu.Lock()
				defer m.mu.Unlock()
				cur, ok := m.entries[target]
				if !ok || cur != e || e.session != token {
					return
				}
				m.dispatchLocked(target, e, vertexSource, fragmentSource, attempt+1)
			})
		case errors.Is(err, preview.ErrTornDown):
			m.mu.Unlock()
		default:
			// Compile or link failure; the runtime already emitted the
			// diagnostic event, which set the state.
			m.mu.Unlock()
		}
	}()
}

// emit hands a host event to the listener via the worker pool so slow
// listeners never stall runtime event consumption.
func (m *manager) emit(ev HostEvent) {
	if m.listener == nil {
		return
	}
	m.pool.SubmitTask(worker.Task{
		ID: int(m.taskCounter.Add(1)),
		Do: func() (any, error) {
			m.listener(ev)
			return nil, nil
		},
	})
}

// hostEventType maps a runtime event type to its host-facing equivalent.
func hostEventType(t preview.EventType) HostEventType {
	switch t {
	case preview.EventReady:
		return HostReady
	case preview.EventError:
		return HostError
	case preview.EventClearError:
		return HostClearError
	case preview.EventStats:
		return HostStats
	default:
		return HostError
	}
}
