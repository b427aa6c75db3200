// Package config handles viewer configuration loading and management.
package config

// DefaultGLBPath is the asset reference used when none is configured.
const DefaultGLBPath = "/model.glb"

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds rendering surface settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"` // Borderless desktop fullscreen
	VSync      bool   `yaml:"vsync"`
}

// ViewerConfig holds model and asset settings.
type ViewerConfig struct {
	GLBPath   string `yaml:"glb_path"`   // Asset reference, e.g. /model.glb
	AssetRoot string `yaml:"asset_root"` // Directory the asset reference is resolved against
	BaseURL   string `yaml:"base_url"`   // When set, assets are fetched over HTTP instead
	Preload   bool   `yaml:"preload"`    // Prime the cache with the default asset at startup
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "glbview",
			Width:      1280,
			Height:     720,
			Fullscreen: true,
			VSync:      true,
		},
		Viewer: ViewerConfig{
			GLBPath:   DefaultGLBPath,
			AssetRoot: "public",
			Preload:   true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
