package tracer

import (
	"github.com/prism-render/prism/engine/camera"
	"github.com/prism-render/prism/engine/input"
	"github.com/prism-render/prism/engine/scene"
)

// TracerBuilderOption is a function that configures a tracerImpl instance.
type TracerBuilderOption func(*tracerImpl)

// WithCamera sets the camera for the tracer.
//
// Parameters:
//   - cam: the camera to use
//
// Returns:
//   - TracerBuilderOption: a function that sets the camera of a tracerImpl instance
func WithCamera(cam camera.Camera) TracerBuilderOption {
	return func(t *tracerImpl) {
		if cam != nil {
			t.cam = cam
		}
	}
}

// WithScene sets the scene store for the tracer.
//
// Parameters:
//   - scn: the scene store to use
//
// Returns:
//   - TracerBuilderOption: a function that sets the scene of a tracerImpl instance
func WithScene(scn scene.Scene) TracerBuilderOption {
	return func(t *tracerImpl) {
		if scn != nil {
			t.scn = scn
		}
	}
}

// WithCommandQueue sets the input command queue drained each frame.
//
// Parameters:
//   - queue: the command queue to use
//
// Returns:
//   - TracerBuilderOption: a function that sets the command queue of a tracerImpl instance
func WithCommandQueue(queue *input.Queue) TracerBuilderOption {
	return func(t *tracerImpl) {
		if queue != nil {
			t.queue = queue
		}
	}
}

// WithSize sets the initial viewport dimensions in pixels. Ignored if either
// dimension is zero or negative.
//
// Parameters:
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//
// Returns:
//   - TracerBuilderOption: a function that sets the viewport size of a tracerImpl instance
func WithSize(width, height int) TracerBuilderOption {
	return func(t *tracerImpl) {
		if width > 0 && height > 0 {
			t.width = width
			t.height = height
		}
	}
}

// WithSkyColor sets the miss radiance color.
//
// Parameters:
//   - color: the sky color
//
// Returns:
//   - TracerBuilderOption: a function that sets the sky color of a tracerImpl instance
func WithSkyColor(color [3]float32) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.skyColor = color
	}
}

// WithLightDirection sets the directional light direction in world space.
//
// Parameters:
//   - direction: the light direction, normalized internally
//
// Returns:
//   - TracerBuilderOption: a function that sets the light direction of a tracerImpl instance
func WithLightDirection(direction [3]float32) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.lightDirection = direction
	}
}

// WithAccumulate sets the initial progressive accumulation state.
//
// Parameters:
//   - accumulate: the initial accumulation state
//
// Returns:
//   - TracerBuilderOption: a function that sets the accumulation state of a tracerImpl instance
func WithAccumulate(accumulate bool) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.accumulate = accumulate
	}
}
