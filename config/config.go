// Package config loads process-level settings for the terrain viewer from a YAML file.
//
// Values are resolved in the order file, then environment, then built-in default.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when no config path is given.
const EnvConfigPath = "TERRAIN_CONFIG"

// Config is the root of the configuration file.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	VR        VRConfig        `yaml:"vr"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode     string  `yaml:"present_mode"`
	MSAA            int     `yaml:"msaa"`
	SoftwareAdapter bool    `yaml:"software_adapter"`
	FrameLimit      float64 `yaml:"frame_limit"`
}

type TerrainConfig struct {
	// Seed fixes the noise permutation; 0 picks a random seed at startup.
	Seed int64 `yaml:"seed"`

	// Texture overrides the bundled rock texture with an image file.
	Texture string `yaml:"texture"`
}

type VRConfig struct {
	StartStereo   bool    `yaml:"start_stereo"`
	EyeSeparation float32 `yaml:"eye_separation"`
}

type ProfilingConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables it.
	Addr string `yaml:"addr"`
}

// GetAddr returns the metrics listen address, falling back to TERRAIN_METRICS_ADDR.
func (m *MetricsConfig) GetAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	return os.Getenv("TERRAIN_METRICS_ADDR")
}

// GetSeed returns the noise seed, falling back to TERRAIN_SEED, then 0 (random).
func (t *TerrainConfig) GetSeed() int64 {
	if t.Seed != 0 {
		return t.Seed
	}
	if envVal := os.Getenv("TERRAIN_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 0
}

// Default returns the built-in configuration.
//
// Returns:
//   - *Config: a fresh default configuration
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Terrain",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
			MSAA:        1,
		},
		VR: VRConfig{
			EyeSeparation: 0.064,
		},
	}
}

// Load reads a YAML configuration file over the defaults.
// If path is empty, TERRAIN_CONFIG is consulted; if that is empty too the defaults are returned.
//
// Parameters:
//   - path: the file path, or empty
//
// Returns:
//   - *Config: the resolved configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges the rest of the program relies on.
//
// Returns:
//   - error: the first invalid value found
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		return fmt.Errorf("unknown present_mode %q", c.Renderer.PresentMode)
	}
	if c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4 {
		return fmt.Errorf("msaa must be 1 or 4, got %d", c.Renderer.MSAA)
	}
	if c.Renderer.FrameLimit < 0 {
		return fmt.Errorf("frame_limit must not be negative")
	}
	if c.VR.EyeSeparation <= 0 {
		return fmt.Errorf("eye_separation must be positive")
	}
	return nil
}
