package config

import (
	"fmt"
	"os"

	"github.com/prism-render/prism/engine/camera"
	"github.com/prism-render/prism/engine/input"
	"github.com/prism-render/prism/engine/renderer"
	"github.com/prism-render/prism/engine/scene"
	"github.com/prism-render/prism/engine/tracer"
	"github.com/prism-render/prism/engine/window"

	"gopkg.in/yaml.v3"
)

// Config is the YAML-backed application configuration. Zero values fall back to
// the defaults applied by Default; a missing file is not an error.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	Input   InputConfig   `yaml:"input"`
	Tracer  TracerConfig  `yaml:"tracer"`
	Profile ProfileConfig `yaml:"profile"`
}

// WindowConfig configures the application window and presentation.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// VSync selects the presentation mode: true for fifo, false for immediate.
	VSync *bool `yaml:"vsync"`
}

// CameraConfig configures the fly camera spawn state.
type CameraConfig struct {
	Position [3]float32 `yaml:"position"`
	// Facing is the initial look direction; zero means the camera default.
	Facing [3]float32 `yaml:"facing"`
	// LookSensitivity scales mouse deltas into rotation, degrees per pixel.
	LookSensitivity float32 `yaml:"look_sensitivity"`
}

// InputConfig configures the input controller.
type InputConfig struct {
	// MoveSpeed is the camera translation speed in world units per second.
	MoveSpeed float32 `yaml:"move_speed"`
}

// TracerConfig configures lighting, accumulation, and scene generation.
type TracerConfig struct {
	SkyColor       [3]float32 `yaml:"sky_color"`
	LightDirection [3]float32 `yaml:"light_direction"`
	// Accumulate enables progressive refinement at startup.
	Accumulate *bool `yaml:"accumulate"`
	// RandomSpheres adds this many randomized spheres to the default scene.
	RandomSpheres int `yaml:"random_spheres"`
}

// ProfileConfig configures performance logging.
type ProfileConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file or field overrides it.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	vsync := true
	accumulate := true
	return Config{
		Window: WindowConfig{
			Title:  "Prism",
			Width:  1280,
			Height: 720,
			VSync:  &vsync,
		},
		Camera: CameraConfig{
			Position:        [3]float32{0, 0, 3},
			Facing:          [3]float32{0, 0, -1},
			LookSensitivity: 0.1,
		},
		Input: InputConfig{
			MoveSpeed: 5.0,
		},
		Tracer: TracerConfig{
			SkyColor:       [3]float32{0.5, 0.7, 0.9},
			LightDirection: [3]float32{-0.5, -1, -0.5},
			Accumulate:     &accumulate,
		},
	}
}

// Load reads the YAML file at path and merges it over the defaults. A missing
// file returns the defaults without error; a malformed file returns an error.
//
// Parameters:
//   - path: the path to the YAML configuration file
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file exists but cannot be read or parsed
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg.normalized(), nil
}

// normalized fills zero-valued fields back in from the defaults so a sparse
// YAML file behaves as an override, not a replacement.
func (c Config) normalized() Config {
	def := Default()
	if c.Window.Title == "" {
		c.Window.Title = def.Window.Title
	}
	if c.Window.Width <= 0 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height <= 0 {
		c.Window.Height = def.Window.Height
	}
	if c.Window.VSync == nil {
		c.Window.VSync = def.Window.VSync
	}
	if c.Camera.Facing == ([3]float32{}) {
		c.Camera.Facing = def.Camera.Facing
	}
	if c.Camera.LookSensitivity <= 0 {
		c.Camera.LookSensitivity = def.Camera.LookSensitivity
	}
	if c.Input.MoveSpeed <= 0 {
		c.Input.MoveSpeed = def.Input.MoveSpeed
	}
	if c.Tracer.SkyColor == ([3]float32{}) {
		c.Tracer.SkyColor = def.Tracer.SkyColor
	}
	if c.Tracer.LightDirection == ([3]float32{}) {
		c.Tracer.LightDirection = def.Tracer.LightDirection
	}
	if c.Tracer.Accumulate == nil {
		c.Tracer.Accumulate = def.Tracer.Accumulate
	}
	if c.Tracer.RandomSpheres < 0 {
		c.Tracer.RandomSpheres = 0
	}
	return c
}

// WindowOptions converts the window configuration into window builder options.
//
// Returns:
//   - []window.WindowBuilderOption: the options to pass to window.NewWindow
func (c Config) WindowOptions() []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(c.Window.Title),
		window.WithWidth(c.Window.Width),
		window.WithHeight(c.Window.Height),
	}
}

// PresentMode returns the renderer presentation mode selected by the window
// configuration.
//
// Returns:
//   - renderer.PresentMode: VSync when vsync is enabled, Uncapped otherwise
func (c Config) PresentMode() renderer.PresentMode {
	if c.Window.VSync != nil && !*c.Window.VSync {
		return renderer.PresentModeUncapped
	}
	return renderer.PresentModeVSync
}

// CameraOptions converts the camera configuration into camera builder options.
//
// Returns:
//   - []camera.CameraBuilderOption: the options to pass to camera.NewCamera
func (c Config) CameraOptions() []camera.CameraBuilderOption {
	return []camera.CameraBuilderOption{
		camera.WithPosition(c.Camera.Position[0], c.Camera.Position[1], c.Camera.Position[2]),
		camera.WithFacing(c.Camera.Facing[0], c.Camera.Facing[1], c.Camera.Facing[2]),
		camera.WithLookSensitivity(c.Camera.LookSensitivity),
	}
}

// ControllerOptions converts the input configuration into controller builder
// options.
//
// Returns:
//   - []input.ControllerBuilderOption: the options to pass to input.NewController
func (c Config) ControllerOptions() []input.ControllerBuilderOption {
	return []input.ControllerBuilderOption{
		input.WithMoveSpeed(c.Input.MoveSpeed),
	}
}

// TracerOptions converts the tracer configuration into tracer builder options.
// The camera, scene, and size options are the caller's to supply.
//
// Returns:
//   - []tracer.TracerBuilderOption: the options to pass to tracer.NewTracer
func (c Config) TracerOptions() []tracer.TracerBuilderOption {
	return []tracer.TracerBuilderOption{
		tracer.WithSkyColor(c.Tracer.SkyColor),
		tracer.WithLightDirection(c.Tracer.LightDirection),
		tracer.WithAccumulate(c.Tracer.Accumulate == nil || *c.Tracer.Accumulate),
	}
}

// BuildScene creates the scene described by the tracer configuration: the
// default scene plus any requested randomized spheres and a small material
// palette for them to reference.
//
// Returns:
//   - scene.Scene: the configured scene
func (c Config) BuildScene() scene.Scene {
	s := scene.NewScene()
	if c.Tracer.RandomSpheres <= 0 {
		return s
	}

	s.AddMaterial(scene.Material{Albedo: [3]float32{0.9, 0.9, 0.9}, Roughness: 0.05})
	s.AddMaterial(scene.Material{Albedo: [3]float32{0.8, 0.3, 0.2}, Roughness: 0.8})
	s.AddMaterial(scene.Material{
		Albedo:           [3]float32{1, 0.9, 0.7},
		Roughness:        1,
		EmissionColor:    [3]float32{1, 0.9, 0.7},
		EmissionStrength: 1,
	})

	for i := 0; i < c.Tracer.RandomSpheres; i++ {
		s.AddSphere(scene.RandomSphere(s.MaterialCount()))
	}
	return s
}
