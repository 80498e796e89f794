package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithEntryPoint overrides the default entry point name for this shader.
//
// Parameters:
//   - name: the entry point function name in the WGSL source
//
// Returns:
//   - ShaderBuilderOption: a function that sets the entry point for this shader
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		if name != "" {
			s.entryPoint = name
		}
	}
}

// WithBindGroupLayoutDescriptor declares the bind group layout descriptor for a group index.
// The descriptor must match the @group/@binding declarations in the WGSL source.
//
// Parameters:
//   - group: the bind group index
//   - desc: the bind group layout descriptor for this group
//
// Returns:
//   - ShaderBuilderOption: a function that declares the layout descriptor for this shader
func WithBindGroupLayoutDescriptor(group int, desc wgpu.BindGroupLayoutDescriptor) ShaderBuilderOption {
	return func(s *shader) {
		s.bindGroupLayoutDescriptors[group] = desc
	}
}

// WithBindGroupLayoutDescriptors declares multiple bind group layout descriptors at once,
// keyed by group index.
//
// Parameters:
//   - descs: a map of group indices to their layout descriptors
//
// Returns:
//   - ShaderBuilderOption: a function that declares the layout descriptors for this shader
func WithBindGroupLayoutDescriptors(descs map[int]wgpu.BindGroupLayoutDescriptor) ShaderBuilderOption {
	return func(s *shader) {
		s.bindGroupLayoutDescriptors = descs
	}
}
