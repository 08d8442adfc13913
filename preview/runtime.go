// Package preview implements the render runtime for a live shader preview: a
// single render loop goroutine that owns a GPU context for one surface and
// draws the most recently installed shader program every frame. Hosts talk to
// the runtime exclusively through asynchronous operations; results and
// diagnostics come back on the Events channel or per-operation reply channels.
package preview

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	stdruntime "runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/shaderview-go/common"
	"github.com/Carmen-Shannon/shaderview-go/preview/geometry"
	"github.com/Carmen-Shannon/shaderview-go/preview/profiler"
	"github.com/Carmen-Shannon/shaderview-go/preview/program"
	"github.com/Carmen-Shannon/shaderview-go/preview/shader"
	"github.com/Carmen-Shannon/shaderview-go/preview/surface"
)

// Runtime is a live shader preview attached to one surface. All operations
// are asynchronous: they post onto the runtime's command channel and are
// applied by the render loop goroutine, which is the only goroutine that
// touches GPU state. A runtime goes through one lifecycle: created, Initialize
// once, operate, Teardown once.
type Runtime interface {
	// Initialize attaches the runtime to a surface and starts the render
	// loop. Context acquisition happens asynchronously on the loop goroutine;
	// success is signaled with EventReady on the Events channel, failure with
	// an EventError carrying ErrContextUnavailable's message, after which the
	// runtime stays inert until Teardown.
	//
	// Parameters:
	//   - surf: the surface to render into (the runtime takes over its resize
	//     and pointer callbacks)
	//
	// Returns:
	//   - error: ErrTornDown after Teardown, or an error if called twice
	Initialize(surf surface.Surface) error

	// UpdateShaders replaces the active program with one compiled from the
	// given source pair. Both stages are validated before the previous
	// program is touched: a compile failure leaves the old program running,
	// while a link failure retires it (nothing is drawn until a later update
	// succeeds). When updates race, only the newest requested pair is ever
	// installed; older in-flight requests resolve with ErrSuperseded.
	//
	// Parameters:
	//   - vertexSource: the vertex stage source
	//   - fragmentSource: the fragment stage source
	//
	// Returns:
	//   - <-chan error: resolves exactly once — nil on install, a
	//     *shader.CompileError or *shader.LinkError on failure, ErrNotReady
	//     before Initialize, ErrSuperseded or ErrTornDown as applicable
	UpdateShaders(vertexSource, fragmentSource string) <-chan error

	// SetUniform sets a user uniform on the installed program. Silently
	// ignored when no program is installed, the name is not declared, or the
	// value's type does not match the declaration.
	//
	// Parameters:
	//   - name: the uniform name as declared in the shader
	//   - value: the tagged value to write
	SetUniform(name string, value common.UniformValue)

	// SetGeometry selects the geometry the program is drawn with. Unknown
	// geometry identifiers are ignored. When a program is installed its
	// attribute bindings are rebuilt against the new layout.
	//
	// Parameters:
	//   - t: the geometry to select
	SetGeometry(t geometry.Type)

	// SetPointer records the pointer position fed to the u_pointer built-in,
	// in backing-store pixels with Y up from the bottom.
	SetPointer(x, y float32)

	// CaptureFrame reads back the most recently rendered frame and encodes
	// it as PNG. Blocks until the readback completes or the runtime is torn
	// down.
	//
	// Returns:
	//   - []byte: the PNG-encoded frame
	//   - error: ErrNotReady before Initialize, ErrTornDown after Teardown,
	//     or the backend's readback error
	CaptureFrame() ([]byte, error)

	// Events returns the runtime's event channel. Closed by Teardown.
	//
	// Returns:
	//   - <-chan Event: ready, error, clearError, and stats notifications
	Events() <-chan Event

	// Teardown stops the render loop, destroys the installed program,
	// releases the GPU context, and closes the Events channel. Idempotent
	// and safe to call concurrently.
	Teardown()
}

// commandKind identifies a render loop command.
type commandKind int

const (
	cmdUpdateShaders commandKind = iota
	cmdSetUniform
	cmdSetGeometry
	cmdSetPointer
	cmdCapture
	cmdResize
)

// captureResult is the reply payload for a capture command.
type captureResult struct {
	data []byte
	err  error
}

// command is one message on the runtime's command channel. Only the fields
// relevant to the kind are set.
type command struct {
	kind commandKind

	// cmdUpdateShaders
	op             uint64
	vertexSource   string
	fragmentSource string
	result         chan error

	// cmdSetUniform
	name  string
	value common.UniformValue

	// cmdSetGeometry
	geometry geometry.Type

	// cmdSetPointer
	pointer common.PointerPosition

	// cmdCapture
	captureReply chan captureResult

	// cmdResize
	width, height int
}

// previewRuntime is the implementation of the Runtime interface.
type previewRuntime struct {
	backend     Backend
	surf        surface.Surface
	events      chan Event
	commands    chan command
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once
	eventsOnce  sync.Once // Ensures the events channel is only closed once
	wg          sync.WaitGroup

	initialized atomic.Bool
	tornDown    atomic.Bool

	// latestOp is the operation counter for shader updates. An in-flight
	// update whose token is below the counter has been superseded and is
	// never installed.
	latestOp atomic.Uint64

	eventBuffer   int
	frameLimit    time.Duration
	statsInterval time.Duration
	logMemory     bool
	presentMode   PresentMode
	msaa          MSAASampleCount

	// Loop-owned state below; touched only by the run goroutine.
	prog         program.Program
	geometryType geometry.Type
	desc         *geometry.Descriptor
	pointer      common.PointerPosition
	pointerKnown bool
	programEpoch time.Time
	prof         *profiler.Profiler
}

var _ Runtime = &previewRuntime{}

// NewRuntime creates a new Runtime with the specified options.
// Applies default values first, then each option in order. The runtime does
// nothing until Initialize is called.
//
// Parameters:
//   - options: functional options to configure the runtime
//
// Returns:
//   - Runtime: the configured runtime
func NewRuntime(options ...RuntimeBuilderOption) Runtime {
	r := &previewRuntime{
		quitChannel:   make(chan struct{}),
		eventBuffer:   64,
		statsInterval: time.Second,
		presentMode:   PresentModeVSync,
		msaa:          MSAA4x,
		geometryType:  geometry.TypeQuad,
		desc:          geometry.Get(geometry.TypeQuad),
	}
	for _, opt := range options {
		opt(r)
	}
	r.events = make(chan Event, r.eventBuffer)
	r.commands = make(chan command, 64)
	if r.backend == nil {
		r.backend = newWGPUBackend(r.presentMode, r.msaa)
	}
	return r
}

func (r *previewRuntime) Initialize(surf surface.Surface) error {
	if r.tornDown.Load() {
		return ErrTornDown
	}
	if surf == nil {
		return fmt.Errorf("preview: initialize requires a surface")
	}
	if !r.initialized.CompareAndSwap(false, true) {
		return fmt.Errorf("preview: runtime already initialized")
	}
	r.surf = surf

	surf.SetResizeCallback(func(width, height int) {
		r.postAsync(command{kind: cmdResize, width: width, height: height})
	})
	surf.SetPointerCallback(r.SetPointer)

	r.wg.Add(1)
	go r.run()
	return nil
}

func (r *previewRuntime) UpdateShaders(vertexSource, fragmentSource string) <-chan error {
	out := make(chan error, 1)
	op := r.latestOp.Add(1)
	inner := make(chan error, 1)
	cmd := command{
		kind:           cmdUpdateShaders,
		op:             op,
		vertexSource:   vertexSource,
		fragmentSource: fragmentSource,
		result:         inner,
	}
	if err := r.post(cmd); err != nil {
		out <- err
		return out
	}
	// The loop resolves every accepted command, but teardown can race the
	// send; watch the quit channel so the caller is never left hanging.
	go func() {
		select {
		case err := <-inner:
			out <- err
		case <-r.quitChannel:
			select {
			case err := <-inner:
				out <- err
			default:
				out <- ErrTornDown
			}
		}
	}()
	return out
}

func (r *previewRuntime) SetUniform(name string, value common.UniformValue) {
	r.postAsync(command{kind: cmdSetUniform, name: name, value: value})
}

func (r *previewRuntime) SetGeometry(t geometry.Type) {
	r.postAsync(command{kind: cmdSetGeometry, geometry: t})
}

func (r *previewRuntime) SetPointer(x, y float32) {
	r.postAsync(command{kind: cmdSetPointer, pointer: common.PointerPosition{X: x, Y: y}})
}

func (r *previewRuntime) CaptureFrame() ([]byte, error) {
	reply := make(chan captureResult, 1)
	if err := r.post(command{kind: cmdCapture, captureReply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.data, res.err
	case <-r.quitChannel:
		select {
		case res := <-reply:
			return res.data, res.err
		default:
			return nil, ErrTornDown
		}
	}
}

func (r *previewRuntime) Events() <-chan Event {
	return r.events
}

func (r *previewRuntime) Teardown() {
	r.tornDown.Store(true)
	r.signalQuit()
	r.wg.Wait()
	r.drainCommands()
	r.eventsOnce.Do(func() { close(r.events) })
}

// signalQuit closes the quit channel exactly once.
func (r *previewRuntime) signalQuit() {
	r.quitOnce.Do(func() { close(r.quitChannel) })
}

// post delivers a command to the render loop, blocking if the channel is
// full. Returns ErrNotReady before Initialize and ErrTornDown after Teardown.
func (r *previewRuntime) post(cmd command) error {
	if r.tornDown.Load() {
		return ErrTornDown
	}
	if !r.initialized.Load() {
		return ErrNotReady
	}
	select {
	case r.commands <- cmd:
		return nil
	case <-r.quitChannel:
		return ErrTornDown
	}
}

// postAsync is the fire-and-forget variant for commands with no reply: drops
// silently when the runtime is not accepting or the channel is full.
func (r *previewRuntime) postAsync(cmd command) {
	if r.tornDown.Load() || !r.initialized.Load() {
		return
	}
	select {
	case r.commands <- cmd:
	default:
		common.Logger().Debug("command channel full, dropping command")
	}
}

// emit delivers an event without blocking the render loop; if the host has
// fallen behind and the channel is full, the event is dropped with a warning.
func (r *previewRuntime) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
		common.Logger().Warn("event channel full, dropping event", slog.String("type", ev.Type.String()))
	}
}

// run is the render loop goroutine. It owns the GPU context end to end:
// acquire, configure, process commands, draw, and release. Pinned to an OS
// thread because most platform GPU APIs require it.
func (r *previewRuntime) run() {
	defer r.wg.Done()
	defer r.drainCommands()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if rec := recover(); rec != nil {
			common.Logger().Error("render loop recovered from panic", slog.Any("panic", rec))
			r.signalQuit()
		}
	}()

	stdruntime.LockOSThread()

	if err := r.backend.AcquireContext(r.surf.SurfaceDescriptor()); err != nil {
		common.Logger().Error("gpu context acquisition failed", slog.String("error", err.Error()))
		r.emit(Event{Type: EventError, Message: fmt.Sprintf("%s: %s", ErrContextUnavailable.Error(), err.Error())})
		// Inert mode: answer commands with the terminal error until teardown.
		for {
			select {
			case <-r.quitChannel:
				return
			case cmd := <-r.commands:
				r.resolveFailed(cmd, ErrContextUnavailable)
			}
		}
	}
	defer r.backend.ReleaseContext()
	defer func() {
		if r.prog != nil {
			r.backend.DestroyProgram(r.prog)
			r.prog = nil
		}
	}()

	r.backend.ConfigureSurface(r.surf.Width(), r.surf.Height())
	r.prof = profiler.NewProfiler(r.statsInterval)
	if r.logMemory {
		r.prof.EnableMemoryLogging()
	}
	r.emit(Event{Type: EventReady})

	for {
		select {
		case <-r.quitChannel:
			return
		case cmd := <-r.commands:
			r.apply(cmd)
		default:
			r.renderFrame()
		}
	}
}

// drainCommands resolves any commands left in the channel after the loop has
// exited so no caller blocks forever.
func (r *previewRuntime) drainCommands() {
	for {
		select {
		case cmd := <-r.commands:
			r.resolveFailed(cmd, ErrTornDown)
		default:
			return
		}
	}
}

// resolveFailed answers a command's reply channel (if it has one) with err.
func (r *previewRuntime) resolveFailed(cmd command, err error) {
	if cmd.result != nil {
		cmd.result <- err
	}
	if cmd.captureReply != nil {
		cmd.captureReply <- captureResult{err: err}
	}
}

// apply dispatches one command on the loop goroutine.
func (r *previewRuntime) apply(cmd command) {
	switch cmd.kind {
	case cmdUpdateShaders:
		r.applyUpdate(cmd)
	case cmdSetUniform:
		r.applySetUniform(cmd)
	case cmdSetGeometry:
		r.applySetGeometry(cmd)
	case cmdSetPointer:
		r.pointer = cmd.pointer
		r.pointerKnown = true
	case cmdCapture:
		r.applyCapture(cmd)
	case cmdResize:
		r.backend.ConfigureSurface(cmd.width, cmd.height)
	}
}

// applyUpdate compiles, links, and installs a shader pair. Validation order
// matters: both stages compile before the old program is touched, so a
// compile failure keeps the previous visuals; the old program is destroyed
// before linking the new one so at most one program's GPU resources are live.
func (r *previewRuntime) applyUpdate(cmd command) {
	if cmd.op < r.latestOp.Load() {
		cmd.result <- ErrSuperseded
		return
	}

	vs, err := shader.Compile(shader.StageVertex, cmd.vertexSource)
	if err != nil {
		r.reportUpdateError(cmd, err)
		return
	}
	fs, err := shader.Compile(shader.StageFragment, cmd.fragmentSource)
	if err != nil {
		r.reportUpdateError(cmd, err)
		return
	}

	refl := shader.Introspect(cmd.vertexSource, cmd.fragmentSource)
	if refl.VertexEntry == "" || refl.FragmentEntry == "" {
		r.reportUpdateError(cmd, &shader.LinkError{
			Diagnostic: "missing entry point: sources must declare @vertex and @fragment functions",
		})
		return
	}

	if r.prog != nil {
		r.backend.DestroyProgram(r.prog)
		r.prog = nil
	}

	p := program.NewProgram(vs, fs, refl)
	if err := r.backend.LinkProgram(p, r.desc); err != nil {
		r.reportUpdateError(cmd, &shader.LinkError{Diagnostic: err.Error()})
		return
	}

	r.prog = p
	// The time built-in restarts from zero for every installed program.
	r.programEpoch = time.Now()
	r.emit(Event{Type: EventClearError})
	cmd.result <- nil
}

// reportUpdateError surfaces an update failure both on the Events channel
// (replacing any prior error display) and on the operation's reply channel.
func (r *previewRuntime) reportUpdateError(cmd command, err error) {
	r.emit(Event{Type: EventError, Message: err.Error()})
	cmd.result <- err
}

func (r *previewRuntime) applySetUniform(cmd command) {
	if r.prog == nil {
		return
	}
	binding, ok := r.prog.Uniforms().Lookup(cmd.name)
	if !ok {
		common.Logger().Debug("setUniform: name not declared by program", slog.String("name", cmd.name))
		return
	}
	if binding.Type != cmd.value.Type {
		common.Logger().Debug("setUniform: type mismatch",
			slog.String("name", cmd.name),
			slog.String("declared", binding.Type.String()),
			slog.String("got", cmd.value.Type.String()))
		return
	}
	r.backend.WriteUniform(r.prog, binding.Offset, float32Bytes(cmd.value.Floats()))
}

func (r *previewRuntime) applySetGeometry(cmd command) {
	desc := geometry.Get(cmd.geometry)
	if desc == nil {
		common.Logger().Warn("setGeometry: unknown geometry", slog.Int("type", int(cmd.geometry)))
		return
	}
	if cmd.geometry == r.geometryType {
		return
	}
	r.geometryType = cmd.geometry
	r.desc = desc
	if r.prog == nil {
		return
	}
	// The vertex layout is baked into the pipeline, so a geometry change
	// rebuilds the installed program's bindings against the new stride.
	if err := r.backend.RebindGeometry(r.prog, desc); err != nil {
		r.backend.DestroyProgram(r.prog)
		r.prog = nil
		r.emit(Event{Type: EventError, Message: (&shader.LinkError{Diagnostic: err.Error()}).Error()})
	}
}

func (r *previewRuntime) applyCapture(cmd command) {
	img, err := r.backend.CaptureImage()
	if err != nil {
		cmd.captureReply <- captureResult{err: err}
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		cmd.captureReply <- captureResult{err: fmt.Errorf("encoding captured frame: %w", err)}
		return
	}
	cmd.captureReply <- captureResult{data: buf.Bytes()}
}

// renderFrame draws one frame with the installed program (or just the clear
// color when none is installed) and feeds the profiler.
func (r *previewRuntime) renderFrame() {
	start := time.Now()

	if r.prog != nil {
		r.uploadBuiltins()
	}

	if err := r.backend.BeginFrame(); err != nil {
		// Surface can be outdated mid-resize; reconfigure and skip the frame.
		r.backend.ConfigureSurface(r.surf.Width(), r.surf.Height())
		return
	}
	if r.prog != nil {
		r.backend.DrawCall(r.prog, r.desc.IndexCount())
	}
	r.backend.EndFrame()
	r.backend.Present()

	if stats, ok := r.prof.Tick(time.Since(start)); ok {
		r.emit(Event{Type: EventStats, Stats: stats})
	}

	if r.frameLimit > 0 {
		if remaining := r.frameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// uploadBuiltins writes the time, resolution, and pointer built-ins the
// installed program declares. Declaring any of them is optional.
func (r *previewRuntime) uploadBuiltins() {
	table := r.prog.Uniforms()

	if b, ok := table.Lookup(shader.BuiltinTime); ok && b.Type == common.UniformScalar {
		elapsed := float32(time.Since(r.programEpoch).Seconds())
		r.backend.WriteUniform(r.prog, b.Offset, float32Bytes([]float32{elapsed}))
	}
	if b, ok := table.Lookup(shader.BuiltinResolution); ok && b.Type == common.UniformVec2 {
		width, height := r.backend.SurfaceSize()
		r.backend.WriteUniform(r.prog, b.Offset, float32Bytes([]float32{float32(width), float32(height)}))
	}
	if r.pointerKnown {
		if b, ok := table.Lookup(shader.BuiltinPointer); ok && b.Type == common.UniformVec2 {
			r.backend.WriteUniform(r.prog, b.Offset, float32Bytes([]float32{r.pointer.X, r.pointer.Y}))
		}
	}
}
