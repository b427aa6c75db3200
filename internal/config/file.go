package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// Load builds the effective configuration. Later sources win:
// built-in defaults, then the YAML file, then command-line flags.
func Load() (*Config, error) {
	cfg := Default()

	if path := ConfigPath(); path != "" {
		if err := cfg.merge(path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	} else if path := findConfigFile(); path != "" {
		if err := cfg.merge(path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	cli.apply(cfg)

	if cfg.Viewer.GLBPath == "" {
		cfg.Viewer.GLBPath = DefaultGLBPath
	}
	return cfg, nil
}

// ConfigDir returns the per-user directory holding glbview's config file.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "glbview")
}

// findConfigFile returns the first existing config file in the working
// directory or ConfigDir, or "" when there is none.
func findConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		path := filepath.Join(dir, fileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// merge overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Save writes c to ConfigDir and returns the file it wrote.
func (c *Config) Save() (string, error) {
	path := filepath.Join(ConfigDir(), fileName)
	return path, c.SaveTo(path)
}

// SaveTo writes c as YAML to path, creating parent directories.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
