package config

import "flag"

// overrides holds the command-line values that win over the config file.
// Zero values mean "not given".
type overrides struct {
	configPath string
	debug      bool
	glbPath    string
	assetRoot  string
	baseURL    string
	windowed   bool
	fullscreen bool
	width      int
	height     int
	save       bool
}

var cli = register(flag.CommandLine)

func register(fs *flag.FlagSet) *overrides {
	o := &overrides{}
	fs.StringVar(&o.configPath, "config", "", "Path to config file")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.glbPath, "glb", "", "Asset path of the GLB model (default "+DefaultGLBPath+")")
	fs.StringVar(&o.assetRoot, "assets", "", "Directory asset paths are resolved against")
	fs.StringVar(&o.baseURL, "base-url", "", "Fetch assets over HTTP from this base URL")
	fs.BoolVar(&o.windowed, "windowed", false, "Run in a window instead of fullscreen")
	fs.BoolVar(&o.fullscreen, "fullscreen", false, "Run borderless fullscreen")
	fs.IntVar(&o.width, "width", 0, "Window width")
	fs.IntVar(&o.height, "height", 0, "Window height")
	fs.BoolVar(&o.save, "save-config", false, "Write the effective config to the config directory")
	return o
}

// ParseFlags parses command-line flags. Call it before Load.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the path given with -config, if any.
func ConfigPath() string {
	return cli.configPath
}

// SaveRequested reports whether -save-config was given.
func SaveRequested() bool {
	return cli.save
}

func (o *overrides) apply(cfg *Config) {
	if o.debug {
		cfg.Logging.Level = "debug"
	}

	setString(&cfg.Viewer.GLBPath, o.glbPath)
	setString(&cfg.Viewer.AssetRoot, o.assetRoot)
	setString(&cfg.Viewer.BaseURL, o.baseURL)

	switch {
	case o.fullscreen:
		cfg.Window.Fullscreen = true
	case o.windowed:
		cfg.Window.Fullscreen = false
	}

	if o.width > 0 {
		cfg.Window.Width = o.width
	}
	if o.height > 0 {
		cfg.Window.Height = o.height
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
