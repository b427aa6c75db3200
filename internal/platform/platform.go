// Package platform checks that the process runs in an interactive desktop
// session before any window is created.
package platform

import (
	"errors"
	"os"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/glbview/internal/logger"
)

// ErrNoDisplay is returned when there is no display server to draw on.
var ErrNoDisplay = errors.New("no display available")

// headlessDrivers are SDL video drivers that never show a window.
var headlessDrivers = map[string]bool{
	"dummy":     true,
	"offscreen": true,
}

// Check reports ErrNoDisplay when the process cannot open a window.
func Check() error {
	err := check(runtime.GOOS, os.Getenv)
	if err == nil {
		logger.Debug("display available",
			zap.String("os", runtime.GOOS),
			zap.Strings("video_drivers", VideoDrivers()),
		)
	}
	return err
}

func check(goos string, getenv func(string) string) error {
	if driver := getenv("SDL_VIDEODRIVER"); driver != "" {
		if headlessDrivers[driver] {
			return ErrNoDisplay
		}
		return nil
	}

	switch goos {
	case "darwin", "windows", "ios", "android":
		return nil
	}

	// X11, Wayland and friends all advertise themselves through the environment.
	if getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != "" {
		return nil
	}
	return ErrNoDisplay
}

// VideoDrivers lists the video drivers compiled into SDL.
func VideoDrivers() []string {
	n, err := sdl.GetNumVideoDrivers()
	if err != nil {
		return nil
	}
	drivers := make([]string, 0, n)
	for i := 0; i < n; i++ {
		drivers = append(drivers, sdl.GetVideoDriver(i))
	}
	return drivers
}
