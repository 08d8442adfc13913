package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// sourceRecorder collects submitted source pairs.
type sourceRecorder struct {
	mu    sync.Mutex
	pairs [][2]string
}

func (r *sourceRecorder) submit(vertexSource, fragmentSource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, [2]string{vertexSource, fragmentSource})
}

func (r *sourceRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pairs)
}

func (r *sourceRecorder) last() [2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pairs) == 0 {
		return [2]string{}
	}
	return r.pairs[len(r.pairs)-1]
}

func writeFiles(t *testing.T, dir, vertexSource, fragmentSource string) (string, string) {
	t.Helper()
	vertPath := filepath.Join(dir, "shader.vert.wgsl")
	fragPath := filepath.Join(dir, "shader.frag.wgsl")
	if err := os.WriteFile(vertPath, []byte(vertexSource), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fragPath, []byte(fragmentSource), 0o644); err != nil {
		t.Fatal(err)
	}
	return vertPath, fragPath
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartSubmitsInitialPair(t *testing.T) {
	dir := t.TempDir()
	vertPath, fragPath := writeFiles(t, dir, "vertex-1", "fragment-1")
	recorder := &sourceRecorder{}

	w := NewWatcher(vertPath, fragPath, recorder.submit, WithDebounce(10*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	if recorder.count() != 1 {
		t.Fatalf("initial submissions = %d, want 1", recorder.count())
	}
	if got := recorder.last(); got != [2]string{"vertex-1", "fragment-1"} {
		t.Errorf("initial pair = %v", got)
	}
}

func TestChangeTriggersReload(t *testing.T) {
	dir := t.TempDir()
	vertPath, fragPath := writeFiles(t, dir, "vertex-1", "fragment-1")
	recorder := &sourceRecorder{}

	w := NewWatcher(vertPath, fragPath, recorder.submit, WithDebounce(10*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(fragPath, []byte("fragment-2"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "reload after change", func() bool {
		return recorder.last() == [2]string{"vertex-1", "fragment-2"}
	})
}

func TestUnrelatedFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	vertPath, fragPath := writeFiles(t, dir, "vertex-1", "fragment-1")
	recorder := &sourceRecorder{}

	w := NewWatcher(vertPath, fragPath, recorder.submit, WithDebounce(10*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if recorder.count() != 1 {
		t.Errorf("submissions = %d, want only the initial one", recorder.count())
	}
}

func TestStartFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	recorder := &sourceRecorder{}

	w := NewWatcher(filepath.Join(dir, "missing.vert"), filepath.Join(dir, "missing.frag"), recorder.submit)
	if err := w.Start(); err == nil {
		t.Fatal("Start() succeeded with missing sources")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	vertPath, fragPath := writeFiles(t, dir, "v", "f")
	recorder := &sourceRecorder{}

	w := NewWatcher(vertPath, fragPath, recorder.submit)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("first Stop() error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}
