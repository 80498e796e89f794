package tracer

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/prism-render/prism/engine/input"
	"github.com/prism-render/prism/engine/renderer"
	"github.com/prism-render/prism/engine/renderer/bind_group_provider"
	"github.com/prism-render/prism/engine/renderer/pipeline"
	"github.com/prism-render/prism/engine/scene"

	"github.com/cogentcore/webgpu/wgpu"
)

type replaceCall struct {
	provider string
	binding  int
	size     uint64
}

type drawCall struct {
	pipelineKey string
	vertexCount uint32
	groupCount  int
}

// fakeRenderer records the orchestration calls the tracer makes so frame
// sequencing can be asserted without a GPU.
type fakeRenderer struct {
	pipelines map[string]pipeline.Pipeline

	initCalls    []string
	replaceCalls []replaceCall
	rebuildCalls []string
	resizes      [][2]int
	writes       [][]bind_group_provider.BufferWrite
	draws        []drawCall

	beginFrames   int
	overlayPasses int
	endFrames     int
	presents      int

	// beginFrameErrs is consumed one per BeginFrame; nil entries succeed.
	beginFrameErrs []error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline { return f.pipelines[key] }

func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline { return f.pipelines }

func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) SetPipeline(key string, p pipeline.Pipeline) { f.pipelines[key] = p }
func (f *fakeRenderer) SetPipelines(pipelines map[string]pipeline.Pipeline) {
	f.pipelines = pipelines
}

func (f *fakeRenderer) Resize(width, height int) {
	f.resizes = append(f.resizes, [2]int{width, height})
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	f.initCalls = append(f.initCalls, provider.Label())
	return nil
}

func (f *fakeRenderer) ReplaceBuffer(provider bind_group_provider.BindGroupProvider, binding int, size uint64, usage wgpu.BufferUsage) error {
	f.replaceCalls = append(f.replaceCalls, replaceCall{provider.Label(), binding, size})
	return nil
}

func (f *fakeRenderer) RebuildBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	f.rebuildCalls = append(f.rebuildCalls, provider.Label())
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	cp := make([]bind_group_provider.BufferWrite, len(writes))
	copy(cp, writes)
	f.writes = append(f.writes, cp)
}

func (f *fakeRenderer) BeginFrame() error {
	f.beginFrames++
	if len(f.beginFrameErrs) > 0 {
		err := f.beginFrameErrs[0]
		f.beginFrameErrs = f.beginFrameErrs[1:]
		return err
	}
	return nil
}

func (f *fakeRenderer) Draw(pipelineKey string, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	f.draws = append(f.draws, drawCall{pipelineKey, vertexCount, len(bindGroups)})
	return nil
}

func (f *fakeRenderer) BeginOverlayPass() { f.overlayPasses++ }

func (f *fakeRenderer) EndFrame() { f.endFrames++ }

func (f *fakeRenderer) Present() { f.presents++ }

func (f *fakeRenderer) SetPresentMode(renderer.PresentMode) {}

var _ renderer.Renderer = &fakeRenderer{}

// lastUniformField reads a u32 field from the most recent frame uniform upload.
func lastUniformField(t *testing.T, f *fakeRenderer, offset int) uint32 {
	t.Helper()
	if len(f.writes) == 0 {
		t.Fatal("No buffer writes recorded")
	}
	frame := f.writes[len(f.writes)-1]
	data := frame[0].Data
	if len(data) != int(GPUFrameUniformSize) {
		t.Fatalf("Expected %d-byte uniform write first, got %d bytes", GPUFrameUniformSize, len(data))
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4])
}

const (
	uniformFramesOffset     = 168
	uniformAccumulateOffset = 172
)

func renderFrames(t *testing.T, trc Tracer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := trc.RenderFrame(); err != nil {
			t.Fatalf("RenderFrame %d failed: %v", i, err)
		}
	}
}

func TestTracerInitRegistersPipelinesAndBindGroups(t *testing.T) {
	f := newFakeRenderer()
	NewTracer(f)

	if f.pipelines[PipelineKeyPathTrace] == nil {
		t.Error("Expected path trace pipeline registered")
	}
	if f.pipelines[PipelineKeyOverlay] == nil {
		t.Error("Expected overlay pipeline registered")
	}
	if len(f.initCalls) != 3 {
		t.Errorf("Expected 3 bind group inits, got %v", f.initCalls)
	}
}

func TestTracerAccumulationAdvancesMonotonically(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)

	for want := uint32(1); want <= 4; want++ {
		renderFrames(t, trc, 1)
		if got := trc.FramesAccumulated(); got != want {
			t.Errorf("Frame %d: expected counter %d, got %d", want, want, got)
		}
		if got := lastUniformField(t, f, uniformFramesOffset); got != want {
			t.Errorf("Frame %d: expected uniform counter %d, got %d", want, want, got)
		}
	}
}

func TestTracerFrameSequence(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 1)

	if f.beginFrames != 1 || f.overlayPasses != 1 || f.endFrames != 1 || f.presents != 1 {
		t.Errorf("Expected one begin/overlay/end/present, got %d/%d/%d/%d",
			f.beginFrames, f.overlayPasses, f.endFrames, f.presents)
	}
	if len(f.draws) != 2 {
		t.Fatalf("Expected 2 draws per frame, got %d", len(f.draws))
	}
	if f.draws[0].pipelineKey != PipelineKeyPathTrace || f.draws[0].groupCount != 3 {
		t.Errorf("Unexpected main pass draw: %+v", f.draws[0])
	}
	if f.draws[1].pipelineKey != PipelineKeyOverlay || f.draws[1].groupCount != 1 {
		t.Errorf("Unexpected overlay draw: %+v", f.draws[1])
	}
	for _, d := range f.draws {
		if d.vertexCount != fullscreenVertexCount {
			t.Errorf("Expected %d vertices, got %d", fullscreenVertexCount, d.vertexCount)
		}
	}
}

func TestTracerResetIsIdempotent(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)

	// Several reset requests within one frame collapse into a single reset.
	trc.ResetAccumulation()
	trc.ResetAccumulation()
	trc.CommandQueue().Push(input.ResetCommand{})

	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected counter 1 after reset, got %d", got)
	}

	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 2 {
		t.Errorf("Expected counter 2 on frame after reset, got %d", got)
	}
}

func TestTracerCameraMovementResets(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)

	trc.CommandQueue().Push(input.LookCommand{DX: 5, DY: 2})
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset after look command, got %d", got)
	}

	// The moved flag was consumed; accumulation resumes.
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 2 {
		t.Errorf("Expected counter 2 after movement stops, got %d", got)
	}
}

func TestTracerDirectCameraMutationResets(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)

	trc.Camera().SetPosition(1, 2, 3)
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset after direct camera mutation, got %d", got)
	}
}

func TestTracerToggleAccumulate(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 2)

	if got := lastUniformField(t, f, uniformAccumulateOffset); got != 1 {
		t.Fatalf("Expected accumulate 1 by default, got %d", got)
	}

	trc.CommandQueue().Push(input.ToggleAccumulateCommand{})
	renderFrames(t, trc, 1)

	if trc.Accumulate() {
		t.Error("Expected accumulation disabled after toggle")
	}
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset on toggle, got %d", got)
	}
	if got := lastUniformField(t, f, uniformAccumulateOffset); got != 0 {
		t.Errorf("Expected accumulate 0 in uniform, got %d", got)
	}

	// Toggling back also resets.
	renderFrames(t, trc, 2)
	trc.SetAccumulate(true)
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset on re-enable, got %d", got)
	}
}

func TestTracerSetAccumulateSameValueNoReset(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)

	trc.SetAccumulate(true)
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 4 {
		t.Errorf("Setting the current value should not reset, got %d", got)
	}
}

func TestTracerSceneGrowthReallocatesAndResets(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)
	f.replaceCalls = nil
	f.rebuildCalls = nil

	trc.CommandQueue().Push(input.SceneEditCommand{Edit: func(s scene.Scene) {
		s.AddSphere(scene.Sphere{Radius: 1})
	}})
	renderFrames(t, trc, 1)

	if len(f.replaceCalls) != 1 {
		t.Fatalf("Expected 1 buffer reallocation, got %v", f.replaceCalls)
	}
	rc := f.replaceCalls[0]
	wantSize := uint64(trc.Scene().SphereCount()) * scene.GPUSphereSize
	if rc.provider != "Scene" || rc.binding != sphereBinding || rc.size != wantSize {
		t.Errorf("Unexpected reallocation %+v, want Scene/%d/%d", rc, sphereBinding, wantSize)
	}
	if len(f.rebuildCalls) != 1 || f.rebuildCalls[0] != "Scene" {
		t.Errorf("Expected one scene bind group rebuild, got %v", f.rebuildCalls)
	}
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset after structural change, got %d", got)
	}
}

func TestTracerSceneGrowthBothCollectionsRebuildsOnce(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 1)
	f.replaceCalls = nil
	f.rebuildCalls = nil

	trc.CommandQueue().Push(input.SceneEditCommand{Edit: func(s scene.Scene) {
		s.AddMaterial(scene.Material{Roughness: 1})
		s.AddSphere(scene.Sphere{Radius: 1, MaterialIndex: 1})
	}})
	renderFrames(t, trc, 1)

	if len(f.replaceCalls) != 2 {
		t.Errorf("Expected both buffers reallocated, got %v", f.replaceCalls)
	}
	if len(f.rebuildCalls) != 1 {
		t.Errorf("Expected exactly one bind group rebuild for both growths, got %v", f.rebuildCalls)
	}
}

func TestTracerSimultaneousTriggersResetOnce(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)

	// Reset request, camera movement, and scene growth in the same frame
	// collapse into exactly one reset.
	trc.ResetAccumulation()
	trc.Camera().SetPosition(5, 0, 0)
	trc.CommandQueue().Push(input.SceneEditCommand{Edit: func(s scene.Scene) {
		s.AddSphere(scene.Sphere{Radius: 1})
	}})

	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected single reset from simultaneous triggers, got %d", got)
	}
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 2 {
		t.Errorf("Expected counter 2 once all triggers are consumed, got %d", got)
	}
}

func TestTracerBatchedAddsReallocateOnce(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 1)
	f.replaceCalls = nil
	f.rebuildCalls = nil

	// Three adds between frames coalesce into one reallocation sized for the
	// final count (default sphere plus three).
	trc.CommandQueue().Push(input.SceneEditCommand{Edit: func(s scene.Scene) {
		s.AddSphere(scene.Sphere{Radius: 1})
		s.AddSphere(scene.Sphere{Radius: 2})
		s.AddSphere(scene.Sphere{Radius: 3})
	}})
	renderFrames(t, trc, 1)

	if len(f.replaceCalls) != 1 {
		t.Fatalf("Expected one coalesced reallocation, got %v", f.replaceCalls)
	}
	if got, want := f.replaceCalls[0].size, 4*scene.GPUSphereSize; got != want {
		t.Errorf("Expected buffer sized for 4 spheres (%d bytes), got %d", want, got)
	}
	if len(f.rebuildCalls) != 1 {
		t.Errorf("Expected one bind group rebuild, got %v", f.rebuildCalls)
	}

	// The upload matches the new collection length.
	frame := f.writes[len(f.writes)-1]
	if got := len(frame[1].Data); got != 4*int(scene.GPUSphereSize) {
		t.Errorf("Expected %d bytes of sphere data, got %d", 4*scene.GPUSphereSize, got)
	}
}

func TestTracerSameSizeResize(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f, WithSize(1280, 720))
	renderFrames(t, trc, 3)

	// Resizing to the current dimensions is valid and still resets.
	if err := trc.Resize(1280, 720); err != nil {
		t.Fatalf("Same-size resize failed: %v", err)
	}
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset after same-size resize, got %d", got)
	}
}

func TestTracerDoubleToggleResetsTwice(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)

	trc.CommandQueue().Push(input.ToggleAccumulateCommand{})
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset on first toggle, got %d", got)
	}

	trc.CommandQueue().Push(input.ToggleAccumulateCommand{})
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset on second toggle, got %d", got)
	}
	if !trc.Accumulate() {
		t.Error("Expected accumulation re-enabled after double toggle")
	}
}

func TestTracerContentEditsUploadWithoutRealloc(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)
	f.replaceCalls = nil

	// In-place edit through the live view: no structural change, no reset.
	trc.Scene().Spheres()[0].Radius = 2
	renderFrames(t, trc, 1)

	if len(f.replaceCalls) != 0 {
		t.Errorf("Content edit should not reallocate, got %v", f.replaceCalls)
	}
	if got := trc.FramesAccumulated(); got != 4 {
		t.Errorf("Content edit should not reset accumulation, got %d", got)
	}

	// The edited radius still reaches the GPU through the per-frame upload.
	frame := f.writes[len(f.writes)-1]
	sphereData := frame[1].Data
	radius := binary.LittleEndian.Uint32(sphereData[16:20])
	if radius != 0x40000000 { // 2.0 as float32 bits
		t.Errorf("Expected radius 2.0 in sphere upload, got bits %#x", radius)
	}
}

func TestTracerResize(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)
	f.replaceCalls = nil
	f.rebuildCalls = nil

	if err := trc.Resize(800, 600); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	if len(f.resizes) == 0 || f.resizes[len(f.resizes)-1] != [2]int{800, 600} {
		t.Errorf("Expected surface reconfigure to 800x600, got %v", f.resizes)
	}
	if len(f.replaceCalls) != 1 {
		t.Fatalf("Expected accumulation buffer reallocation, got %v", f.replaceCalls)
	}
	rc := f.replaceCalls[0]
	if rc.provider != "Accumulation" || rc.size != 800*600*accumulationTexelSize {
		t.Errorf("Unexpected accumulation reallocation %+v", rc)
	}
	if len(f.rebuildCalls) != 1 || f.rebuildCalls[0] != "Accumulation" {
		t.Errorf("Expected accumulation bind group rebuild, got %v", f.rebuildCalls)
	}

	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected reset after resize, got %d", got)
	}
}

func TestTracerResizePanicsOnZeroDimensions(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on zero-dimension resize")
		}
	}()
	trc.Resize(0, 600)
}

func TestTracerTimeoutSkipsFrame(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)

	f.beginFrameErrs = []error{&renderer.FrameError{Kind: renderer.FrameErrorTimeout, Err: errors.New("surface timeout")}}
	drawsBefore := len(f.draws)

	renderFrames(t, trc, 1)
	if len(f.draws) != drawsBefore {
		t.Error("Skipped frame should not draw")
	}
	if got := trc.FramesAccumulated(); got != 3 {
		t.Errorf("Skipped frame should not advance the counter, got %d", got)
	}

	// The next frame replays the missing sample.
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 4 {
		t.Errorf("Expected counter 4 after recovery, got %d", got)
	}
}

func TestTracerOutdatedSurfaceReconfiguresAndResets(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)
	renderFrames(t, trc, 3)
	f.resizes = nil

	f.beginFrameErrs = []error{&renderer.FrameError{Kind: renderer.FrameErrorOutdated, Err: errors.New("surface outdated")}}
	renderFrames(t, trc, 1)

	if len(f.resizes) != 1 {
		t.Errorf("Expected surface reconfigure after outdated error, got %v", f.resizes)
	}
	renderFrames(t, trc, 1)
	if got := trc.FramesAccumulated(); got != 1 {
		t.Errorf("Expected accumulation reset after outdated recovery, got %d", got)
	}
}

func TestTracerOutOfMemoryPanics(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)

	f.beginFrameErrs = []error{&renderer.FrameError{Kind: renderer.FrameErrorOutOfMemory, Err: errors.New("out of memory")}}
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on out of memory")
		}
	}()
	_ = trc.RenderFrame()
}

func TestTracerNonFrameErrorPropagates(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f)

	f.beginFrameErrs = []error{errors.New("plain failure")}
	if err := trc.RenderFrame(); err == nil {
		t.Error("Expected plain errors to propagate")
	}
}

func TestTracerUniformDimensions(t *testing.T) {
	f := newFakeRenderer()
	trc := NewTracer(f, WithSize(640, 480))
	renderFrames(t, trc, 1)

	// Dimensions live at offset 160 as two u32s.
	if got := lastUniformField(t, f, 160); got != 640 {
		t.Errorf("Expected width 640 in uniform, got %d", got)
	}
	if got := lastUniformField(t, f, 164); got != 480 {
		t.Errorf("Expected height 480 in uniform, got %d", got)
	}
}

func TestGPUFrameUniformSize(t *testing.T) {
	if GPUFrameUniformSize != 176 {
		t.Errorf("Expected 176-byte frame uniform, got %d", GPUFrameUniformSize)
	}
	if GPUFrameUniformSize%16 != 0 {
		t.Errorf("Frame uniform size %d not 16-byte aligned", GPUFrameUniformSize)
	}
}
