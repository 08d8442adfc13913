package surface

// SurfaceBuilderOption is a functional option for configuring a previewSurface.
// Use the With* functions to create options.
type SurfaceBuilderOption func(s *previewSurface)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - SurfaceBuilderOption: option function to apply
func WithTitle(title string) SurfaceBuilderOption {
	return func(s *previewSurface) {
		s.title = title
	}
}

// WithWidth sets the initial surface width.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - SurfaceBuilderOption: option function to apply
func WithWidth(width int) SurfaceBuilderOption {
	return func(s *previewSurface) {
		s.width = width
	}
}

// WithHeight sets the initial surface height.
//
// Parameters:
//   - height: initial height in pixels
//
// Returns:
//   - SurfaceBuilderOption: option function to apply
func WithHeight(height int) SurfaceBuilderOption {
	return func(s *previewSurface) {
		s.height = height
	}
}
