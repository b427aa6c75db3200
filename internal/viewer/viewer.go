// Package viewer shows one GLB model full-window: a progress label while the
// asset loads, then the model turning slowly under mouse orbit controls.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/glbview/internal/assets"
	"github.com/Faultbox/glbview/internal/engine/camera"
	"github.com/Faultbox/glbview/internal/engine/input"
	"github.com/Faultbox/glbview/internal/engine/lighting"
	"github.com/Faultbox/glbview/internal/engine/renderer"
	"github.com/Faultbox/glbview/internal/engine/ui2d"
	"github.com/Faultbox/glbview/internal/engine/window"
	"github.com/Faultbox/glbview/internal/logger"
)

// DefaultGLBPath is shown when Options.GLBPath is empty. It is also the
// asset primed by Options.Preload.
const DefaultGLBPath = "/model.glb"

// Options configures a Viewer.
type Options struct {
	// GLBPath is the asset reference of the model.
	GLBPath string

	// Window describes the rendering surface.
	Window window.Config

	// Assets resolves GLBPath. Defaults to the "public" directory.
	Assets *assets.Manager

	// Preload primes the asset cache with DefaultGLBPath at startup.
	Preload bool
}

// Viewer owns the window, the GL state and at most one loaded model.
type Viewer struct {
	opts Options

	window   *window.Window
	renderer *renderer.Renderer
	ui       *ui2d.Renderer
	input    *input.Input
	controls *camera.OrbitControls
	lights   lighting.Rig

	session *session
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a viewer. No window exists until Run.
func New(opts Options) *Viewer {
	if opts.GLBPath == "" {
		opts.GLBPath = DefaultGLBPath
	}
	if opts.Assets == nil {
		opts.Assets = assets.NewManager(assets.DirSource{Root: "public"})
	}

	return &Viewer{
		opts:     opts,
		controls: camera.NewOrbitControls(),
		lights:   lighting.Default(),
		session:  newSession(assets.Ref(opts.GLBPath), opts.Assets),
	}
}

// GLBPath returns the resolved asset reference.
func (v *Viewer) GLBPath() string {
	return v.opts.GLBPath
}

// Phase returns the current load phase.
func (v *Viewer) Phase() Phase {
	return v.session.phase()
}

// Run opens the window, starts loading and renders until the window is
// closed, ctx is cancelled or the load fails. Only a load failure is
// returned, wrapped.
func (v *Viewer) Run(ctx context.Context) error {
	if err := v.open(); err != nil {
		return err
	}

	ctx, v.cancel = context.WithCancel(ctx)
	if v.opts.Preload {
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			v.preload(ctx)
		}()
	}
	v.session.start(ctx)

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting render loop", zap.String("glb", v.opts.GLBPath))

	for {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			return nil
		}
		v.handleEvents(v.input.Events())

		if v.session.poll() && v.session.phase() == PhaseFailed {
			return v.session.err
		}

		v.update()
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			fields := []zap.Field{
				zap.Int("fps", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
				zap.Stringer("phase", v.session.phase()),
			}
			if m := v.session.model; m != nil {
				fields = append(fields, zap.Float64("angle", m.Angle()))
			}
			logger.Debug("fps", fields...)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if err := ctx.Err(); err != nil {
			return stopped(err)
		}
	}
}

// stopped maps the end of the run context to Run's result. Cancellation is
// a requested shutdown, not a failure.
func stopped(err error) error {
	if errors.Is(err, context.Canceled) {
		logger.Info("shutdown requested")
		return nil
	}
	return err
}

// open creates the window and GL resources, cleaning up on failure.
func (v *Viewer) open() error {
	var err error
	v.window, err = window.New(v.opts.Window)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	width, height := v.window.DrawableSize()

	// Renderer must come AFTER the window, since the GL context must exist.
	v.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: renderer.DefaultClearColor,
	})
	if err != nil {
		v.window.Close()
		v.window = nil
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	v.ui, err = ui2d.New(width, height)
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		v.renderer, v.window = nil, nil
		return fmt.Errorf("failed to create overlay: %w", err)
	}

	v.input = input.New()
	return nil
}

func (v *Viewer) preload(ctx context.Context) {
	err := v.opts.Assets.Preload(ctx, DefaultGLBPath)
	if err != nil && ctx.Err() == nil {
		logger.Warn("preload failed", zap.String("ref", DefaultGLBPath), zap.Error(err))
	}
}

func (v *Viewer) handleEvents(events []input.Event) {
	for _, e := range events {
		switch e.Type {
		case input.EventWindowResize:
			// Window events carry screen coordinates; the viewport wants pixels.
			width, height := v.window.DrawableSize()
			v.renderer.Resize(width, height)
			v.ui.Resize(width, height)
		case input.EventMouseMove:
			applyMotion(v.controls, e)
		case input.EventMouseWheel:
			v.controls.HandleZoom(e.Wheel)
		}
	}
}

// applyMotion maps a mouse move to the orbit controls: left drag rotates,
// right drag pans.
func applyMotion(c *camera.OrbitControls, e input.Event) {
	dx, dy := float32(e.DeltaX), float32(e.DeltaY)
	switch {
	case e.Pressed(input.ButtonLeft):
		c.HandleDrag(dx, dy)
	case e.Pressed(input.ButtonRight):
		c.HandlePan(dx, dy)
	}
}

func (v *Viewer) update() {
	v.controls.Update()

	if m := v.session.model; m != nil {
		m.Upload(v.renderer)
		m.Advance()
	}
}

func (v *Viewer) render() {
	v.renderer.Begin()

	drawLoader, drawModel := layers(v.session.phase())

	if drawModel && v.session.model != nil {
		v.session.model.Draw(v.renderer, renderer.Frame{
			View:       v.controls.ViewMatrix(),
			Projection: v.controls.ProjectionMatrix(v.renderer.Aspect()),
			Lights:     v.lights,
		})
	}

	if drawLoader {
		v.session.loader.Poll()
		v.ui.Begin()
		v.session.loader.Draw(v.ui)
		v.ui.End()
	}

	v.renderer.End()
}

// Close stops loading and releases every resource Run created.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.cancel != nil {
		v.cancel()
	}
	v.session.close()
	v.wg.Wait()

	if m := v.session.model; m != nil {
		m.Release()
	}
	if v.ui != nil {
		v.ui.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
