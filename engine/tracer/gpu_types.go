package tracer

import (
	_ "embed"
	"unsafe"
)

// GPUPathTraceSource is the canonical WGSL path tracing program: a vertex entry
// generating a fullscreen triangle pair from the vertex index and a fragment entry
// tracing spheres with roughness/emission materials, a directional light and sky,
// and accumulation read-modify-write. The Sphere and Material struct definitions
// are prepended from scene.GPUSceneTypesSource at shader creation.
//
//go:embed assets/pathtrace.wgsl
var GPUPathTraceSource string

// GPUOverlaySource is the WGSL overlay program drawn in the overlay pass on top of
// the accumulated image: a fullscreen vignette blended over the path traced output.
//
//go:embed assets/overlay.wgsl
var GPUOverlaySource string

// GPUFrameUniform is the GPU-aligned per-frame uniform uploaded unconditionally
// every frame. Matches the WGSL FrameUniform struct layout exactly.
// Size: 176 bytes (std140 aligned, vec3 fields padded by the trailing scalar).
type GPUFrameUniform struct {
	InverseProjection [16]float32 // offset   0: clip -> view (mat4x4<f32>, column-major)
	InverseView       [16]float32 // offset  64: view -> world (mat4x4<f32>, column-major)
	LightDirection    [3]float32  // offset 128: directional light, world space (vec3<f32>)
	AspectRatio       float32     // offset 140: viewport width / height (f32)
	SkyColor          [3]float32  // offset 144: miss radiance (vec3<f32>)
	Time              float32     // offset 156: frame time, fixed 1/60 step (f32)
	Dimensions        [2]uint32   // offset 160: viewport size in pixels (vec2<u32>)
	FramesAccumulated uint32      // offset 168: accumulation frame count, >= 1 (u32)
	Accumulate        uint32      // offset 172: progressive accumulation toggle (u32)
}

// GPUFrameUniformSize is the size of the frame uniform in bytes.
const GPUFrameUniformSize = uint64(unsafe.Sizeof(GPUFrameUniform{}))

// accumulationTexelSize is the bytes per accumulation pixel (vec4<f32>).
const accumulationTexelSize = uint64(16)
