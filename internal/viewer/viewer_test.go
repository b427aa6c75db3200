package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/glbview/internal/assets"
	"github.com/Faultbox/glbview/internal/logger"
	"github.com/Faultbox/glbview/internal/progress"
	"github.com/Faultbox/glbview/internal/scene"
)

// writeTriangleGLB saves a one-triangle model at dir/name.
func writeTriangleGLB(t *testing.T, dir, name string) {
	t.Helper()

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	prim := &gltf.Primitive{Indices: gltf.Index(idx)}
	prim.Attributes = map[string]int{"POSITION": pos}
	doc.Meshes = []*gltf.Mesh{{Name: "tri", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: "tri", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}

	if err := gltf.SaveBinary(doc, filepath.Join(dir, name)); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}
}

// waitForPhaseChange polls s until it leaves PhaseLoading or the deadline passes.
func waitForPhaseChange(t *testing.T, s *session) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.poll() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("load did not finish")
}

func TestPhaseTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps []Phase
		fail  int // index of the first step expected to fail, -1 for none
		final Phase
	}{
		{"load succeeds", []Phase{PhaseLoaded}, -1, PhaseLoaded},
		{"load fails", []Phase{PhaseFailed}, -1, PhaseFailed},
		{"never back to loading", []Phase{PhaseLoaded, PhaseLoading}, 1, PhaseLoaded},
		{"never both", []Phase{PhaseLoaded, PhaseFailed}, 1, PhaseLoaded},
		{"failed is final", []Phase{PhaseFailed, PhaseLoaded}, 1, PhaseFailed},
		{"loading to loading", []Phase{PhaseLoading}, 0, PhaseLoading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m machine
			for i, to := range tt.steps {
				err := m.transition(to)
				wantErr := tt.fail >= 0 && i >= tt.fail
				if wantErr && !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("step %d (%s): err = %v, want ErrInvalidTransition", i, to, err)
				}
				if !wantErr && err != nil {
					t.Errorf("step %d (%s): unexpected error %v", i, to, err)
				}
			}
			if m.Phase() != tt.final {
				t.Errorf("final phase = %s, want %s", m.Phase(), tt.final)
			}
		})
	}
}

func TestLayers(t *testing.T) {
	tests := []struct {
		phase         Phase
		loader, model bool
	}{
		{PhaseLoading, true, false},
		{PhaseLoaded, false, true},
		{PhaseFailed, false, false},
	}
	for _, tt := range tests {
		loader, model := layers(tt.phase)
		if loader != tt.loader || model != tt.model {
			t.Errorf("layers(%s) = (%v, %v), want (%v, %v)", tt.phase, loader, model, tt.loader, tt.model)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	v := New(Options{})
	defer v.session.close()

	if v.GLBPath() != "/model.glb" {
		t.Errorf("GLBPath = %q, want /model.glb", v.GLBPath())
	}
	if v.Phase() != PhaseLoading {
		t.Errorf("Phase = %s, want loading", v.Phase())
	}

	custom := New(Options{GLBPath: "/other.glb"})
	defer custom.session.close()
	if custom.GLBPath() != "/other.glb" {
		t.Errorf("GLBPath = %q, want /other.glb", custom.GLBPath())
	}
}

func TestLoaderText(t *testing.T) {
	tr := progress.New()
	l := NewLoader(tr)
	defer l.Close()

	if got := l.Text(); got != "Chargement... 0%" {
		t.Errorf("Text = %q", got)
	}

	tr.Report(1, 4)
	l.Poll()
	if got := l.Text(); got != "Chargement... 25%" {
		t.Errorf("Text = %q", got)
	}

	// Lower values are never shown.
	tr.Report(1, 10)
	l.Poll()
	if l.Percent() != 25 {
		t.Errorf("Percent = %d, want 25", l.Percent())
	}

	tr.Complete()
	l.Poll()
	if got := l.Text(); got != "Chargement... 100%" {
		t.Errorf("Text = %q", got)
	}
}

func TestLoaderPercentNeverDecreases(t *testing.T) {
	tr := progress.New()
	l := NewLoader(tr)
	defer l.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(0); i <= 1000; i++ {
			tr.Report(i, 1000)
			tr.Report(i/2, 1000)
		}
		tr.Complete()
	}()

	last := 0
	for !tr.Done() || l.Percent() < 100 {
		p := l.Poll()
		if p < last || p < 0 || p > 100 {
			t.Fatalf("percent went from %d to %d", last, p)
		}
		last = p
	}
	wg.Wait()
}

func TestModelAdvance(t *testing.T) {
	m := NewModel(&scene.Node{})

	const frames = 1000
	for i := 0; i < frames; i++ {
		m.Advance()
	}

	want := RotationStep * frames
	if math.Abs(m.Angle()-want) > 1e-9 {
		t.Errorf("Angle = %v, want %v", m.Angle(), want)
	}
	if m.Uploaded() {
		t.Error("model should not have GPU buffers")
	}
}

func TestSessionLoads(t *testing.T) {
	dir := t.TempDir()
	writeTriangleGLB(t, dir, "model.glb")

	s := newSession("/model.glb", assets.NewManager(assets.DirSource{Root: dir}))
	defer s.close()
	s.start(context.Background())

	waitForPhaseChange(t, s)

	if s.phase() != PhaseLoaded {
		t.Fatalf("phase = %s, err = %v", s.phase(), s.err)
	}
	if s.model == nil || s.model.Node().TriangleCount() != 1 {
		t.Fatal("model not set")
	}
	if s.loader.Poll() != 100 {
		t.Errorf("loader percent = %d, want 100", s.loader.Percent())
	}
}

func TestSessionPreloadedAsset(t *testing.T) {
	dir := t.TempDir()
	writeTriangleGLB(t, dir, "model.glb")

	mgr := assets.NewManager(assets.DirSource{Root: dir})
	if err := mgr.Preload(context.Background(), DefaultGLBPath); err != nil {
		t.Fatalf("Preload failed: %v", err)
	}

	s := newSession(DefaultGLBPath, mgr)
	defer s.close()
	s.start(context.Background())
	waitForPhaseChange(t, s)

	if s.phase() != PhaseLoaded {
		t.Fatalf("phase = %s, err = %v", s.phase(), s.err)
	}
	if hits, _ := mgr.Cache().Stats(); hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
}

func TestSessionMissingAsset(t *testing.T) {
	s := newSession("/missing.glb", assets.NewManager(assets.DirSource{Root: t.TempDir()}))
	defer s.close()
	s.start(context.Background())

	waitForPhaseChange(t, s)

	if s.phase() != PhaseFailed {
		t.Fatalf("phase = %s, want failed", s.phase())
	}
	if !errors.Is(s.err, assets.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", s.err)
	}
	if s.model != nil {
		t.Error("failed load must not produce a model")
	}
	if loader, model := layers(s.phase()); loader || model {
		t.Error("failed load must draw neither loader nor model")
	}
}

func TestSessionCorruptAsset(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.glb"), []byte("glTF garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newSession("/model.glb", assets.NewManager(assets.DirSource{Root: dir}))
	defer s.close()
	s.start(context.Background())
	waitForPhaseChange(t, s)

	if s.phase() != PhaseFailed {
		t.Fatalf("phase = %s, want failed", s.phase())
	}
	if s.err == nil || errors.Is(s.err, assets.ErrNotFound) {
		t.Errorf("err = %v, want decode error", s.err)
	}
	if s.loader.Poll() == 100 {
		t.Error("failed decode must not complete progress")
	}
}

// stallSource never delivers until its context ends.
type stallSource struct{}

func (stallSource) Open(ctx context.Context, _ assets.Ref) (io.ReadCloser, int64, error) {
	<-ctx.Done()
	return nil, 0, ctx.Err()
}

func TestSessionCloseDiscardsResult(t *testing.T) {
	s := newSession("/model.glb", assets.NewManager(stallSource{}))
	s.start(context.Background())
	s.close()

	time.Sleep(50 * time.Millisecond)
	if s.poll() {
		t.Error("closed session should not change phase")
	}
	if s.phase() != PhaseLoading {
		t.Errorf("phase = %s, want loading", s.phase())
	}
}

func TestSessionCloseWaitsForLoad(t *testing.T) {
	s := newSession("/model.glb", assets.NewManager(stallSource{}))
	s.start(context.Background())
	s.close()

	select {
	case <-s.done:
	default:
		t.Error("close returned while the load goroutine was still running")
	}

	// A second close must not block.
	s.close()
}

func TestStopped(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantNil bool
	}{
		{"cancelled", context.Canceled, true},
		{"wrapped cancel", fmt.Errorf("run: %w", context.Canceled), true},
		{"deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stopped(tt.err)
			if (got == nil) != tt.wantNil {
				t.Errorf("stopped(%v) = %v", tt.err, got)
			}
		})
	}
}

// lockedBuffer lets goroutines log into one buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *lockedBuffer {
	t.Helper()
	out := &lockedBuffer{}
	if err := logger.Setup(logger.Options{Level: "debug", Console: out}); err != nil {
		t.Fatalf("logger.Setup: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return out
}

func TestPreloadWarnings(t *testing.T) {
	t.Run("missing asset", func(t *testing.T) {
		out := captureLogs(t)
		v := New(Options{Assets: assets.NewManager(assets.DirSource{Root: t.TempDir()})})

		v.preload(context.Background())
		if !strings.Contains(out.String(), "preload failed") {
			t.Errorf("missing asset not reported:\n%s", out.String())
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		out := captureLogs(t)
		v := New(Options{Assets: assets.NewManager(stallSource{})})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		v.preload(ctx)
		if strings.Contains(out.String(), "preload failed") {
			t.Errorf("shutdown reported as a preload failure:\n%s", out.String())
		}
	})
}

func TestCloseWithoutRun(t *testing.T) {
	v := New(Options{Assets: assets.NewManager(stallSource{})})
	v.Close()
}
