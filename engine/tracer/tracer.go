package tracer

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/prism-render/prism/common"
	"github.com/prism-render/prism/engine/camera"
	"github.com/prism-render/prism/engine/input"
	"github.com/prism-render/prism/engine/renderer"
	"github.com/prism-render/prism/engine/renderer/bind_group_provider"
	"github.com/prism-render/prism/engine/renderer/pipeline"
	"github.com/prism-render/prism/engine/renderer/shader"
	"github.com/prism-render/prism/engine/scene"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// PipelineKeyPathTrace is the cache key for the main path tracing pipeline.
	PipelineKeyPathTrace = "pathtrace"

	// PipelineKeyOverlay is the cache key for the overlay pipeline.
	PipelineKeyOverlay = "overlay"

	// Binding indices within each bind group provider.
	uniformBinding      = 0
	sphereBinding       = 0
	materialBinding     = 1
	accumulationBinding = 0

	// fullscreenVertexCount is the vertex count for the bufferless triangle pair.
	fullscreenVertexCount = 6

	// timeStep is the fixed per-frame advance of the uniform's time field.
	// Shader time is frame-locked, never wall clock, so accumulated frames stay coherent.
	timeStep = float32(1.0 / 60.0)
)

// tracerImpl is the unexported implementation of Tracer.
type tracerImpl struct {
	mu *sync.Mutex

	cam   camera.Camera
	scn   scene.Scene
	rend  renderer.Renderer
	queue *input.Queue

	// width, height are the viewport dimensions in pixels.
	width, height int

	// framesAccumulated counts frames blended into the accumulation buffer, always >= 1.
	framesAccumulated uint32

	// accumulate toggles progressive refinement. Toggling in either direction resets.
	accumulate bool

	// resetPending requests an accumulation reset at the next frame's reconcile step.
	// Multiple triggers within one frame collapse into a single reset.
	resetPending bool

	// time is the frame-locked shader clock.
	time float32

	skyColor       [3]float32
	lightDirection [3]float32

	// GPU resource providers. The uniform and accumulation providers each hold one
	// buffer; the scene provider holds the sphere and material storage buffers.
	uniformProvider      bind_group_provider.BindGroupProvider
	sceneProvider        bind_group_provider.BindGroupProvider
	accumulationProvider bind_group_provider.BindGroupProvider

	// Bind group layout descriptors, created once at construction.
	uniformLayout      wgpu.BindGroupLayoutDescriptor
	sceneLayout        wgpu.BindGroupLayoutDescriptor
	accumulationLayout wgpu.BindGroupLayoutDescriptor

	// sphereCapacity, materialCapacity are the element counts the storage buffers were
	// last allocated for. Buffers grow on structural change and never shrink.
	sphereCapacity   int
	materialCapacity int
}

// Tracer is the render orchestrator: it owns the camera, scene store, frame uniform,
// and accumulation state, and sequences each frame against the Renderer.
//
// The per-frame sequence in RenderFrame never skips or reorders steps: drain input
// commands, recompute the frame uniform, reconcile scene dirtiness, reconcile
// accumulation, upload buffers, path trace pass, overlay pass, present.
type Tracer interface {
	// Camera returns the camera driven by look and move commands.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Scene returns the scene store rendered each frame.
	//
	// Returns:
	//   - scene.Scene: the scene store
	Scene() scene.Scene

	// CommandQueue returns the input command queue drained at the top of each frame.
	//
	// Returns:
	//   - *input.Queue: the command queue
	CommandQueue() *input.Queue

	// RenderFrame runs one full frame. Transient surface errors (timeout) skip the
	// frame; structural errors (outdated, lost) reconfigure the surface and reset
	// accumulation; out of memory panics.
	//
	// Returns:
	//   - error: an error if a non-surface frame step fails
	RenderFrame() error

	// Resize reconfigures the surface and reallocates the accumulation buffer for the
	// new dimensions, then requests an accumulation reset. Panics if either dimension
	// is zero or negative.
	//
	// Parameters:
	//   - width: the new viewport width in pixels
	//   - height: the new viewport height in pixels
	//
	// Returns:
	//   - error: an error if the accumulation buffer could not be reallocated
	Resize(width, height int) error

	// ResetAccumulation requests an accumulation reset at the next frame. Idempotent:
	// multiple requests within one frame produce a single reset.
	ResetAccumulation()

	// FramesAccumulated returns the current accumulation frame count, always >= 1.
	//
	// Returns:
	//   - uint32: the accumulation frame count
	FramesAccumulated() uint32

	// Accumulate returns whether progressive accumulation is enabled.
	//
	// Returns:
	//   - bool: true if accumulation is enabled
	Accumulate() bool

	// SetAccumulate enables or disables progressive accumulation. Any change of value
	// requests an accumulation reset.
	//
	// Parameters:
	//   - accumulate: the new accumulation state
	SetAccumulate(accumulate bool)

	// SkyColor returns the miss radiance color.
	//
	// Returns:
	//   - [3]float32: the sky color
	SkyColor() [3]float32

	// SetSkyColor sets the miss radiance color. Picked up by the next frame's uniform
	// upload; does not reset accumulation.
	//
	// Parameters:
	//   - color: the sky color
	SetSkyColor(color [3]float32)

	// LightDirection returns the directional light direction in world space.
	//
	// Returns:
	//   - [3]float32: the light direction
	LightDirection() [3]float32

	// SetLightDirection sets the directional light direction in world space.
	// Normalized internally.
	//
	// Parameters:
	//   - direction: the light direction
	SetLightDirection(direction [3]float32)

	// Time returns the frame-locked shader clock in seconds.
	//
	// Returns:
	//   - float32: the shader time
	Time() float32

	// Release releases all GPU resources held by the tracer's providers.
	Release()
}

// Compile-time check that tracerImpl implements Tracer
var _ Tracer = &tracerImpl{}

// NewTracer creates a Tracer against the given renderer, initializes GPU resources
// (buffers, bind groups, pipelines), and leaves it ready for the first RenderFrame.
// Scene bind group layout creation is hoisted into this init phase; the layout handles
// live on the tracer, not behind any lazy global.
//
// Panics if the renderer is nil or if GPU resource initialization fails, mirroring
// construction-time failure handling elsewhere in the engine.
//
// Parameters:
//   - rend: the renderer to orchestrate frames against
//   - options: a variadic list of options to configure the tracer
//
// Returns:
//   - Tracer: a new Tracer instance with GPU resources initialized
func NewTracer(rend renderer.Renderer, options ...TracerBuilderOption) Tracer {
	if rend == nil {
		panic("tracer: renderer must not be nil")
	}
	t := &tracerImpl{
		mu:                &sync.Mutex{},
		rend:              rend,
		width:             1280,
		height:            720,
		framesAccumulated: 1,
		accumulate:        true,
		resetPending:      true,
		skyColor:          [3]float32{0.5, 0.7, 0.9},
		lightDirection:    common.Normalize3([3]float32{-0.5, -1, -0.5}),
	}
	for _, opt := range options {
		opt(t)
	}
	t.lightDirection = common.Normalize3(t.lightDirection)
	if t.cam == nil {
		t.cam = camera.NewCamera()
	}
	if t.scn == nil {
		t.scn = scene.NewScene()
	}
	if t.queue == nil {
		t.queue = input.NewQueue()
	}

	t.uniformLayout = frameUniformLayoutDescriptor()
	t.sceneLayout = sceneLayoutDescriptor()
	t.accumulationLayout = accumulationLayoutDescriptor()

	t.uniformProvider = bind_group_provider.NewBindGroupProvider("Frame Uniform")
	t.sceneProvider = bind_group_provider.NewBindGroupProvider("Scene")
	t.accumulationProvider = bind_group_provider.NewBindGroupProvider("Accumulation")

	t.sphereCapacity = max(t.scn.SphereCount(), 1)
	t.materialCapacity = max(t.scn.MaterialCount(), 1)

	if err := t.initGPUResources(); err != nil {
		panic(fmt.Sprintf("tracer: failed to initialize GPU resources: %v", err))
	}
	return t
}

// initGPUResources creates the uniform, scene, and accumulation bind groups and
// registers the path trace and overlay pipelines.
func (t *tracerImpl) initGPUResources() error {
	if err := t.rend.InitBindGroup(t.uniformProvider, t.uniformLayout, nil, nil); err != nil {
		return fmt.Errorf("uniform bind group: %w", err)
	}
	if err := t.rend.InitBindGroup(t.sceneProvider, t.sceneLayout, nil, map[int]uint64{
		sphereBinding:   uint64(t.sphereCapacity) * scene.GPUSphereSize,
		materialBinding: uint64(t.materialCapacity) * scene.GPUMaterialSize,
	}); err != nil {
		return fmt.Errorf("scene bind group: %w", err)
	}
	if err := t.rend.InitBindGroup(t.accumulationProvider, t.accumulationLayout, nil, map[int]uint64{
		accumulationBinding: uint64(t.width) * uint64(t.height) * accumulationTexelSize,
	}); err != nil {
		return fmt.Errorf("accumulation bind group: %w", err)
	}

	pathSource := scene.GPUSceneTypesSource + "\n" + GPUPathTraceSource
	pathVS := shader.NewShader("pathtrace_vs", shader.ShaderTypeVertex, pathSource)
	pathFS := shader.NewShader("pathtrace_fs", shader.ShaderTypeFragment, pathSource,
		shader.WithBindGroupLayoutDescriptors(map[int]wgpu.BindGroupLayoutDescriptor{
			0: t.uniformLayout,
			1: t.sceneLayout,
			2: t.accumulationLayout,
		}))

	overlayVS := shader.NewShader("overlay_vs", shader.ShaderTypeVertex, GPUOverlaySource)
	overlayFS := shader.NewShader("overlay_fs", shader.ShaderTypeFragment, GPUOverlaySource,
		shader.WithBindGroupLayoutDescriptor(0, t.uniformLayout))

	return t.rend.RegisterPipelines(
		pipeline.NewPipeline(PipelineKeyPathTrace,
			pipeline.WithVertexShader(pathVS),
			pipeline.WithFragmentShader(pathFS),
		),
		pipeline.NewPipeline(PipelineKeyOverlay,
			pipeline.WithVertexShader(overlayVS),
			pipeline.WithFragmentShader(overlayFS),
			pipeline.WithBlendEnabled(true),
		),
	)
}

func (t *tracerImpl) Camera() camera.Camera {
	return t.cam
}

func (t *tracerImpl) Scene() scene.Scene {
	return t.scn
}

func (t *tracerImpl) CommandQueue() *input.Queue {
	return t.queue
}

func (t *tracerImpl) RenderFrame() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// 1. Drain pending input commands before any per-frame state is computed.
	t.drainCommandsLocked()

	// 2. Recompute the frame uniform from the camera and current aspect ratio.
	// Accumulation fields are patched in after the reconcile steps below.
	t.time += timeStep
	uniform := t.buildUniformLocked()

	// 3. Reconcile scene dirtiness: grown storage buffers are reallocated and the
	// scene bind group rebuilt exactly once per frame.
	structural, err := t.reconcileSceneLocked()
	if err != nil {
		return err
	}

	// 4. Reconcile accumulation. All reset triggers OR into one reset per frame.
	moved := t.cam.Moved()
	if moved {
		t.cam.ClearMoved()
	}
	if t.resetPending || moved || structural {
		t.framesAccumulated = 1
		t.resetPending = false
	} else {
		t.framesAccumulated++
	}
	uniform.FramesAccumulated = t.framesAccumulated
	if t.accumulate {
		uniform.Accumulate = 1
	}

	// 5. Upload uniform and scene buffers unconditionally. Content edits made through
	// the scene's mutable views are picked up here without touching dirty flags.
	t.rend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: t.uniformProvider, Binding: uniformBinding, Data: common.StructToBytes(&uniform)},
		{Provider: t.sceneProvider, Binding: sphereBinding, Data: t.scn.EncodeSpheres()},
		{Provider: t.sceneProvider, Binding: materialBinding, Data: t.scn.EncodeMaterials()},
	})

	// 6. Path trace pass.
	if err := t.rend.BeginFrame(); err != nil {
		return t.handleFrameErrorLocked(err)
	}
	if err := t.rend.Draw(PipelineKeyPathTrace, fullscreenVertexCount, []bind_group_provider.BindGroupProvider{
		t.uniformProvider, t.sceneProvider, t.accumulationProvider,
	}); err != nil {
		return err
	}

	// 7. Overlay pass loads the path traced output and composites on top.
	t.rend.BeginOverlayPass()
	if err := t.rend.Draw(PipelineKeyOverlay, fullscreenVertexCount, []bind_group_provider.BindGroupProvider{
		t.uniformProvider,
	}); err != nil {
		return err
	}

	// 8. Submit and present.
	t.rend.EndFrame()
	t.rend.Present()
	return nil
}

func (t *tracerImpl) Resize(width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resizeLocked(width, height)
}

func (t *tracerImpl) ResetAccumulation() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetPending = true
}

func (t *tracerImpl) FramesAccumulated() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.framesAccumulated
}

func (t *tracerImpl) Accumulate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accumulate
}

func (t *tracerImpl) SetAccumulate(accumulate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.accumulate != accumulate {
		t.accumulate = accumulate
		t.resetPending = true
	}
}

func (t *tracerImpl) SkyColor() [3]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skyColor
}

func (t *tracerImpl) SetSkyColor(color [3]float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skyColor = color
}

func (t *tracerImpl) LightDirection() [3]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lightDirection
}

func (t *tracerImpl) SetLightDirection(direction [3]float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lightDirection = common.Normalize3(direction)
}

func (t *tracerImpl) Time() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.time
}

func (t *tracerImpl) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.uniformProvider.Release()
	t.sceneProvider.Release()
	t.accumulationProvider.Release()
}

// drainCommandsLocked applies all pending input commands in push order.
func (t *tracerImpl) drainCommandsLocked() {
	for _, cmd := range t.queue.Drain() {
		switch c := cmd.(type) {
		case input.LookCommand:
			t.cam.ApplyLookDelta(c.DX, c.DY)
		case input.MoveCommand:
			t.cam.ApplyMove(c.Mask, c.DT, c.Speed)
		case input.SceneEditCommand:
			if c.Edit != nil {
				c.Edit(t.scn)
			}
		case input.ResetCommand:
			t.resetPending = true
		case input.ToggleAccumulateCommand:
			t.accumulate = !t.accumulate
			t.resetPending = true
		}
	}
}

// buildUniformLocked recomputes the frame uniform from camera and viewport state.
// FramesAccumulated and Accumulate are left zero for the caller to patch after the
// accumulation reconcile.
func (t *tracerImpl) buildUniformLocked() GPUFrameUniform {
	aspect := float32(t.width) / float32(t.height)
	proj := t.cam.ProjectionMatrix(aspect)
	view := t.cam.ViewMatrix()

	var invProj, invView [16]float32
	common.Invert4(invProj[:], proj[:])
	common.Invert4(invView[:], view[:])

	return GPUFrameUniform{
		InverseProjection: invProj,
		InverseView:       invView,
		LightDirection:    t.lightDirection,
		AspectRatio:       aspect,
		SkyColor:          t.skyColor,
		Time:              t.time,
		Dimensions:        [2]uint32{uint32(t.width), uint32(t.height)},
	}
}

// reconcileSceneLocked consumes the scene's dirty flags, reallocates the grown storage
// buffers, and rebuilds the scene bind group at most once. Returns whether a structural
// change occurred.
func (t *tracerImpl) reconcileSceneLocked() (bool, error) {
	spheresDirty, materialsDirty := t.scn.TakeDirty()

	if spheresDirty {
		t.sphereCapacity = max(t.scn.SphereCount(), 1)
		if err := t.rend.ReplaceBuffer(t.sceneProvider, sphereBinding,
			uint64(t.sphereCapacity)*scene.GPUSphereSize,
			wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
			return false, fmt.Errorf("sphere buffer reallocation: %w", err)
		}
	}
	if materialsDirty {
		t.materialCapacity = max(t.scn.MaterialCount(), 1)
		if err := t.rend.ReplaceBuffer(t.sceneProvider, materialBinding,
			uint64(t.materialCapacity)*scene.GPUMaterialSize,
			wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
			return false, fmt.Errorf("material buffer reallocation: %w", err)
		}
	}

	structural := spheresDirty || materialsDirty
	if structural {
		if err := t.rend.RebuildBindGroup(t.sceneProvider, t.sceneLayout); err != nil {
			return false, fmt.Errorf("scene bind group rebuild: %w", err)
		}
	}
	return structural, nil
}

// resizeLocked reconfigures the surface, reallocates the accumulation buffer for the
// new pixel count, rebuilds its bind group, and requests an accumulation reset.
func (t *tracerImpl) resizeLocked(width, height int) error {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("tracer: resize to invalid dimensions %dx%d", width, height))
	}
	t.width, t.height = width, height
	t.rend.Resize(width, height)

	size := uint64(width) * uint64(height) * accumulationTexelSize
	if err := t.rend.ReplaceBuffer(t.accumulationProvider, accumulationBinding, size,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return fmt.Errorf("accumulation buffer reallocation: %w", err)
	}
	if err := t.rend.RebuildBindGroup(t.accumulationProvider, t.accumulationLayout); err != nil {
		return fmt.Errorf("accumulation bind group rebuild: %w", err)
	}

	t.resetPending = true
	return nil
}

// handleFrameErrorLocked applies the frame error recovery policy: transient errors
// skip the frame, structural errors reconfigure the surface at the current size and
// force an accumulation reset, out of memory aborts.
func (t *tracerImpl) handleFrameErrorLocked(err error) error {
	var fe *renderer.FrameError
	if !errors.As(err, &fe) {
		return err
	}
	switch fe.Kind {
	case renderer.FrameErrorTimeout, renderer.FrameErrorUnknown:
		// The frame never reached the accumulation buffer; roll the counter
		// back so the next rendered frame replays this sample.
		if t.framesAccumulated > 1 {
			t.framesAccumulated--
		} else {
			t.resetPending = true
		}
		log.Printf("tracer: skipping frame: %v", fe)
		return nil
	case renderer.FrameErrorOutdated, renderer.FrameErrorLost:
		log.Printf("tracer: surface %s, reconfiguring at %dx%d", fe.Kind, t.width, t.height)
		return t.resizeLocked(t.width, t.height)
	case renderer.FrameErrorOutOfMemory:
		panic(fmt.Sprintf("tracer: %v", fe))
	default:
		return err
	}
}

// frameUniformLayoutDescriptor is the layout for bind group 0: the frame uniform.
func frameUniformLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Uniform Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    uniformBinding,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: GPUFrameUniformSize,
				},
			},
		},
	}
}

// sceneLayoutDescriptor is the layout for bind group 1: sphere and material storage.
func sceneLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Scene Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    sphereBinding,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: scene.GPUSphereSize,
				},
			},
			{
				Binding:    materialBinding,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: scene.GPUMaterialSize,
				},
			},
		},
	}
}

// accumulationLayoutDescriptor is the layout for bind group 2: the accumulation buffer.
func accumulationLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Accumulation Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    accumulationBinding,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeStorage,
					MinBindingSize: accumulationTexelSize,
				},
			},
		},
	}
}
