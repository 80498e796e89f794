package engine

import (
	"time"

	"github.com/prism-render/prism/engine/input"
	"github.com/prism-render/prism/engine/tracer"
	"github.com/prism-render/prism/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the input tick rate in ticks per second.
// Held keys are sampled into move commands at this rate.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a pre-configured window for the engine to use.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithTracer sets the render orchestrator the engine drives each frame.
//
// Parameters:
//   - t: a pre-configured Tracer instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTracer(t tracer.Tracer) EngineBuilderOption {
	return func(e *engine) {
		e.trc = t
	}
}

// WithController sets a custom input controller rather than allowing the engine to
// create one wired to the tracer's command queue.
//
// Parameters:
//   - c: a pre-configured Controller instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithController(c input.Controller) EngineBuilderOption {
	return func(e *engine) {
		e.controller = c
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
