package scene

import (
	_ "embed"
	"unsafe"
)

// GPUSceneTypesSource is the canonical WGSL definition of the Sphere and
// Material storage buffer structs. Matches GPUSphere/GPUMaterial layout
// exactly (32 bytes each, std430 aligned).
//
//go:embed assets/scene_types.wgsl
var GPUSceneTypesSource string

// GPUSphere is the GPU-aligned representation of a sphere primitive.
// Matches the WGSL Sphere struct layout exactly (see GPUSceneTypesSource).
// Size: 32 bytes (std430 aligned).
type GPUSphere struct {
	Position      [4]float32 // offset  0: world position, w unused (vec4<f32>)
	Radius        float32    // offset 16: sphere radius (f32)
	MaterialIndex uint32     // offset 20: index into the material buffer (u32)
	_pad          [2]uint32  // offset 24: padding to 32 bytes
}

// GPUMaterial is the GPU-aligned representation of a surface material.
// Matches the WGSL Material struct layout exactly (see GPUSceneTypesSource).
// Size: 32 bytes (std430 aligned).
type GPUMaterial struct {
	Albedo           [3]float32 // offset  0: diffuse color (vec3<f32>)
	Roughness        float32    // offset 12: scatter amount, 0 = mirror, 1 = diffuse (f32)
	EmissionColor    [3]float32 // offset 16: emitted color (vec3<f32>)
	EmissionStrength float32    // offset 28: emission scale (f32)
}

// GPUSphereSize is the size of one GPUSphere in bytes.
const GPUSphereSize = uint64(unsafe.Sizeof(GPUSphere{}))

// GPUMaterialSize is the size of one GPUMaterial in bytes.
const GPUMaterialSize = uint64(unsafe.Sizeof(GPUMaterial{}))
