package surface

import (
	"sync"
	"testing"
)

// TestSizeAccessIsConcurrencySafe checks that the platform layer can resize
// the surface while another goroutine reads its dimensions, the way a render
// loop polls Width/Height while the message loop delivers framebuffer events.
// Run with the race detector to verify.
func TestSizeAccessIsConcurrencySafe(t *testing.T) {
	s := &previewSurface{}
	s.setSize(800, 600)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.setSize(800+i, 600+i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = s.Width()
			_ = s.Height()
		}
	}()
	wg.Wait()

	if s.Width() != 1799 || s.Height() != 1599 {
		t.Errorf("size = %dx%d, want 1799x1599", s.Width(), s.Height())
	}
}

// TestSetSizeUpdatesBothDimensions checks the size setter and getters agree.
func TestSetSizeUpdatesBothDimensions(t *testing.T) {
	s := &previewSurface{}
	s.setSize(1024, 768)
	if s.Width() != 1024 {
		t.Errorf("Width() = %d, want 1024", s.Width())
	}
	if s.Height() != 768 {
		t.Errorf("Height() = %d, want 768", s.Height())
	}
}
