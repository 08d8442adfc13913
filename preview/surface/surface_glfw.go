package surface

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwSurface holds the GLFW-specific window state.
type glfwSurface struct {
	parent  *previewSurface
	window  *glfw.Window
	running bool
}

// newPlatformSurface creates the GLFW window with event callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformSurface(s *previewSurface) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(s.width, s.height, s.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}

	gs := &glfwSurface{
		parent:  s,
		window:  win,
		running: true,
	}
	s.internalWindow = gs

	// Escape closes the preview window.
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gs.running = false
			win.SetShouldClose(true)
		}
	})

	// Pointer positions arrive in logical window coordinates with Y down from
	// the top. Shaders expect backing-store pixels with Y up from the bottom,
	// so scale by the framebuffer ratio and flip.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCursorPosCallback
	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if s.onPointer == nil {
			return
		}
		winWidth, winHeight := win.GetSize()
		if winWidth <= 0 || winHeight <= 0 {
			return
		}
		scaleX := float64(s.Width()) / float64(winWidth)
		scaleY := float64(s.Height()) / float64(winHeight)
		s.onPointer(float32(xpos*scaleX), float32((float64(winHeight)-ypos)*scaleY))
	})

	// Use framebuffer size callback for pixel-accurate resize events.
	// On high-DPI displays (e.g., macOS Retina), framebuffer size differs from window size.
	// The runtime requires pixel dimensions for correct surface configuration.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		s.setSize(width, height)
		if s.onResize != nil {
			s.onResize(width, height)
		}
	})

	// Update stored dimensions to reflect actual framebuffer size (may differ from requested on high-DPI).
	fbWidth, fbHeight := win.GetFramebufferSize()
	s.setSize(fbWidth, fbHeight)

	return nil
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
// Uses the wgpuglfw bridge package which has per-platform implementations (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(s *previewSurface) *wgpu.SurfaceDescriptor {
	if s.internalWindow == nil {
		return nil
	}
	gs := s.internalWindow.(*glfwSurface)
	return wgpuglfw.GetSurfaceDescriptor(gs.window)
}

// platformIsRunningCheck returns whether the GLFW window is still active.
// Returns false if the internal window is nil, the running flag is cleared, or GLFW reports ShouldClose.
func platformIsRunningCheck(s *previewSurface) bool {
	if s.internalWindow == nil {
		return false
	}
	gs := s.internalWindow.(*glfwSurface)
	return gs.running && !gs.window.ShouldClose()
}

// platformCloseSurface destroys the GLFW window and terminates the GLFW library.
// Returns an error if the internal window has not been initialized.
func platformCloseSurface(s *previewSurface) error {
	if s.internalWindow == nil {
		return fmt.Errorf("surface is not initialized")
	}
	gs := s.internalWindow.(*glfwSurface)
	gs.running = false
	gs.window.SetShouldClose(true)
	gs.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(s *previewSurface) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(s)
}
