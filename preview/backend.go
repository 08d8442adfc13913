package preview

import (
	"image"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/shaderview-go/preview/geometry"
	"github.com/Carmen-Shannon/shaderview-go/preview/program"
)

// BackendType identifies the GPU backend implementation used by the runtime.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU BackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// Backend is the GPU abstraction the runtime drives. All methods are called
// from the runtime's loop goroutine only; implementations need no internal
// locking. The wgpu implementation is the production backend; tests substitute
// a recording fake.
type Backend interface {
	// AcquireContext creates the GPU instance, adapter, device, and queue for
	// the given surface. Called once, on the loop goroutine, before any other
	// method.
	//
	// Parameters:
	//   - descriptor: the platform surface descriptor to render into
	//
	// Returns:
	//   - error: wraps ErrContextUnavailable if no usable context exists
	AcquireContext(descriptor *wgpu.SurfaceDescriptor) error

	// ConfigureSurface (re)configures the swapchain for the given size in
	// backing-store pixels. Called at startup and on every resize.
	ConfigureSurface(width, height int)

	// SetPresentMode selects the presentation mode for subsequent
	// ConfigureSurface calls.
	SetPresentMode(mode PresentMode)

	// SurfaceSize returns the currently configured surface size in
	// backing-store pixels.
	SurfaceSize() (width, height int)

	// LinkProgram creates the render pipeline, uniform buffer, bind group,
	// and geometry buffers for the program and attaches them as handles.
	// The vertex layout is derived from the geometry descriptor and the
	// program's reflection; vertex input locations the program does not
	// consume are skipped.
	//
	// Parameters:
	//   - p: the program to link (handles are attached on success)
	//   - geom: the geometry whose layout the pipeline is built against
	//
	// Returns:
	//   - error: the device's validation diagnostic on failure
	LinkProgram(p program.Program, geom *geometry.Descriptor) error

	// RebindGeometry rebuilds the program's pipeline and mesh buffers against
	// a different geometry. Needed because the vertex layout (stride,
	// position component count) is baked into the pipeline at link time.
	//
	// Parameters:
	//   - p: the currently installed program
	//   - geom: the newly selected geometry
	//
	// Returns:
	//   - error: the device's validation diagnostic on failure
	RebindGeometry(p program.Program, geom *geometry.Descriptor) error

	// DestroyProgram releases the GPU resources attached to the program.
	// Safe to call on a program that never linked.
	DestroyProgram(p program.Program)

	// WriteUniform writes raw bytes into the program's uniform buffer at the
	// given byte offset. No-op if the program has no uniform buffer.
	WriteUniform(p program.Program, offset uint64, data []byte)

	// BeginFrame acquires the next swapchain texture and opens the frame's
	// render pass, clearing the target. Returns an error when the surface is
	// outdated (e.g. mid-resize); the frame should be skipped.
	BeginFrame() error

	// DrawCall records one indexed draw of the program's bound geometry into
	// the open render pass.
	DrawCall(p program.Program, indexCount int)

	// EndFrame closes the render pass and submits the frame's command buffer.
	EndFrame()

	// Present presents the frame to the surface.
	Present()

	// CaptureImage reads back the most recently presented frame as RGBA
	// pixels. Blocks until the GPU copy completes.
	//
	// Returns:
	//   - *image.RGBA: the frame contents, origin top-left
	//   - error: if no frame has been rendered or the readback failed
	CaptureImage() (*image.RGBA, error)

	// ReleaseContext releases the device, queue, and surface. Called once at
	// teardown; the backend is unusable afterwards.
	ReleaseContext()
}
