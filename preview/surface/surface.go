// Package surface provides the platform window a preview runtime renders
// into, with pointer tracking in backing-store pixels. One surface is owned by
// at most one runtime at a time.
package surface

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/shaderview-go/common"
)

// Surface provides platform windowing and pointer event handling for a
// preview runtime. Wraps platform-specific window implementations with a
// common interface. All sizes and coordinates are in backing-store pixels,
// which on high-DPI displays differ from the window's logical size.
type Surface interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the surface's backing
	// store is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in backing-store pixels
	SetResizeCallback(callback func(width, height int))

	// SetPointerCallback sets the callback for pointer movement. Coordinates
	// are in backing-store pixels with Y measured from the bottom edge, the
	// convention fragment shaders expect.
	//
	// Parameters:
	//   - callback: function receiving pointer x, y position
	SetPointerCallback(callback func(x, y float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the surface is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the surface's window is still active.
	//
	// Returns:
	//   - bool: true if running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current backing-store width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current backing-store height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// previewSurface is the implementation of the Surface interface.
// Holds window configuration, GLFW state, and event callbacks.
type previewSurface struct {
	// title is the window title displayed in the title bar.
	title string

	// sizeMu guards width and height: the platform resize callback writes
	// them on the message loop goroutine while the owning runtime reads them
	// from its render loop goroutine.
	sizeMu sync.RWMutex

	// width is the current backing-store width in pixels.
	width int

	// height is the current backing-store height in pixels.
	height int

	// internalWindow holds the platform-specific window data (glfwSurface).
	internalWindow any

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the backing store is resized.
	onResize func(width, height int)

	// onPointer is called when the pointer moves, in backing-store pixels
	// with Y up from the bottom.
	onPointer func(x, y float32)
}

var _ Surface = &previewSurface{}

// NewSurface creates a new Surface with the specified options.
// Applies each option in order, then fills unset values with defaults.
//
// Parameters:
//   - options: functional options to configure the surface
//
// Returns:
//   - Surface: the configured surface
//   - error: if the platform window could not be created
func NewSurface(options ...SurfaceBuilderOption) (Surface, error) {
	s := &previewSurface{}
	for _, opt := range options {
		opt(s)
	}
	s.title = common.Coalesce(s.title, "Shader Preview")
	s.width = common.Coalesce(s.width, 800)
	s.height = common.Coalesce(s.height, 600)
	if err := newPlatformSurface(s); err != nil {
		return nil, fmt.Errorf("failed to create platform surface: %w", err)
	}
	return s, nil
}

func (s *previewSurface) SetUpdateCallback(callback func()) {
	s.onUpdate = callback
}

func (s *previewSurface) SetResizeCallback(callback func(width, height int)) {
	s.onResize = callback
}

func (s *previewSurface) SetPointerCallback(callback func(x, y float32)) {
	s.onPointer = callback
}

func (s *previewSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(s)
}

func (s *previewSurface) IsRunning() bool {
	return platformIsRunningCheck(s)
}

func (s *previewSurface) Close() error {
	return platformCloseSurface(s)
}

func (s *previewSurface) ProcessMessages() {
	for s.IsRunning() {
		if succ := platformProcessMessages(s); !succ {
			break
		}

		if s.onUpdate != nil {
			s.onUpdate()
		}

		runtime.Gosched()
	}
}

func (s *previewSurface) Width() int {
	s.sizeMu.RLock()
	defer s.sizeMu.RUnlock()
	return s.width
}

func (s *previewSurface) Height() int {
	s.sizeMu.RLock()
	defer s.sizeMu.RUnlock()
	return s.height
}

// setSize records the current backing-store size. Called from the platform
// layer when the framebuffer is created or resized.
func (s *previewSurface) setSize(width, height int) {
	s.sizeMu.Lock()
	defer s.sizeMu.Unlock()
	s.width = width
	s.height = height
}
