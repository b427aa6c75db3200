// Package window owns the SDL2 window and its OpenGL 4.1 core context.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/glbview/internal/logger"
)

// GL calls are only valid on the thread that created the context.
func init() {
	runtime.LockOSThread()
}

// Config describes the rendering surface.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool // borderless, at desktop resolution
	VSync      bool
}

func (c Config) flags() uint32 {
	f := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if c.Fullscreen {
		f |= sdl.WINDOW_FULLSCREEN_DESKTOP | sdl.WINDOW_BORDERLESS
	}
	return f
}

// Window is an SDL window with a current GL context.
type Window struct {
	win *sdl.Window
	ctx sdl.GLContext
}

type glAttr struct {
	attr  sdl.GLattr
	value int
}

// 4.1 core is the newest profile macOS offers.
var contextAttrs = []glAttr{
	{sdl.GL_CONTEXT_MAJOR_VERSION, 4},
	{sdl.GL_CONTEXT_MINOR_VERSION, 1},
	{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
	{sdl.GL_DOUBLEBUFFER, 1},
	{sdl.GL_DEPTH_SIZE, 24},
}

// Tried in order until the driver accepts one.
var multisampleLevels = []int{4, 0}

// New initialises SDL video, opens the window and makes its GL context current.
func New(cfg Config) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}
	for _, a := range contextAttrs {
		sdl.GLSetAttribute(a.attr, a.value)
	}

	win, samples, err := create(cfg)
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		logger.Warn("swap interval not applied", zap.Int("interval", interval), zap.Error(err))
	}

	w := &Window{win: win, ctx: ctx}
	width, height := w.DrawableSize()
	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("msaa", samples),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// create opens the window with the highest multisample level the driver takes.
func create(cfg Config) (*sdl.Window, int, error) {
	var err error
	for _, samples := range multisampleLevels {
		buffers := 0
		if samples > 0 {
			buffers = 1
		}
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLEBUFFERS, buffers)
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLESAMPLES, samples)

		var win *sdl.Window
		win, err = sdl.CreateWindow(cfg.Title,
			sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
			int32(cfg.Width), int32(cfg.Height), cfg.flags())
		if err == nil {
			return win, samples, nil
		}
		logger.Debug("window creation rejected", zap.Int("msaa", samples), zap.Error(err))
	}
	return nil, 0, fmt.Errorf("SDL_CreateWindow failed: %w", err)
}

// DrawableSize is the framebuffer size in pixels. On high-DPI displays it is
// larger than the window size in screen coordinates.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.win.GLGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) SwapBuffers() {
	w.win.GLSwap()
}

// Close releases the context and window, then shuts SDL down.
func (w *Window) Close() {
	if w.ctx != nil {
		sdl.GLDeleteContext(w.ctx)
	}
	if w.win != nil {
		w.win.Destroy()
	}
	sdl.Quit()
	logger.Info("window closed")
}
