package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prism-render/prism/engine/renderer"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prism.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Missing file should not error, got %v", err)
	}

	def := Default()
	if cfg.Window.Title != def.Window.Title || cfg.Window.Width != def.Window.Width {
		t.Errorf("Expected default window config, got %+v", cfg.Window)
	}
	if cfg.Input.MoveSpeed != def.Input.MoveSpeed {
		t.Errorf("Expected default move speed, got %f", cfg.Input.MoveSpeed)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "window: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
window:
  title: Test Window
  width: 800
  height: 600
  vsync: false
camera:
  position: [1, 2, 3]
tracer:
  random_spheres: 10
  accumulate: false
profile:
  enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Window.Title != "Test Window" || cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("Unexpected window config: %+v", cfg.Window)
	}
	if cfg.PresentMode() != renderer.PresentModeUncapped {
		t.Error("Expected uncapped present mode with vsync false")
	}
	if cfg.Camera.Position != [3]float32{1, 2, 3} {
		t.Errorf("Unexpected camera position: %v", cfg.Camera.Position)
	}
	if cfg.Tracer.Accumulate == nil || *cfg.Tracer.Accumulate {
		t.Error("Expected accumulate false")
	}
	if cfg.Tracer.RandomSpheres != 10 {
		t.Errorf("Expected 10 random spheres, got %d", cfg.Tracer.RandomSpheres)
	}
	if !cfg.Profile.Enabled {
		t.Error("Expected profiling enabled")
	}
}

func TestLoadSparseFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
window:
  title: Sparse
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Window.Title != "Sparse" {
		t.Errorf("Expected overridden title, got %q", cfg.Window.Title)
	}

	def := Default()
	if cfg.Window.Width != def.Window.Width || cfg.Window.Height != def.Window.Height {
		t.Errorf("Expected default dimensions, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.PresentMode() != renderer.PresentModeVSync {
		t.Error("Expected default vsync present mode")
	}
	if cfg.Camera.LookSensitivity != def.Camera.LookSensitivity {
		t.Errorf("Expected default look sensitivity, got %f", cfg.Camera.LookSensitivity)
	}
	if cfg.Tracer.SkyColor != def.Tracer.SkyColor {
		t.Errorf("Expected default sky color, got %v", cfg.Tracer.SkyColor)
	}
}

func TestBuildSceneDefault(t *testing.T) {
	cfg := Default()
	s := cfg.BuildScene()

	if got := s.SphereCount(); got != 1 {
		t.Errorf("Expected default single-sphere scene, got %d spheres", got)
	}
	if got := s.MaterialCount(); got != 1 {
		t.Errorf("Expected single default material, got %d", got)
	}
}

func TestBuildSceneRandomSpheres(t *testing.T) {
	cfg := Default()
	cfg.Tracer.RandomSpheres = 25
	s := cfg.BuildScene()

	// Default sphere plus the requested extras.
	if got := s.SphereCount(); got != 26 {
		t.Errorf("Expected 26 spheres, got %d", got)
	}
	// The palette must cover every generated material index.
	materials := s.MaterialCount()
	for _, sp := range s.Spheres() {
		if int(sp.MaterialIndex) >= materials {
			t.Fatalf("Sphere references material %d but only %d exist", sp.MaterialIndex, materials)
		}
	}
}
